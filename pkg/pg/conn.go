package pg

import (
	"database/sql"
	"fmt"
)

type Config struct {
	User     string
	Host     string
	Port     string
	Password string
	Database string
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", c.Host, c.User, c.Password, c.Database, c.Port)
}

func newSqlConnection(config Config) (*sql.DB, error) {
	return sql.Open("postgres", config.DSN())
}
