package worker

import (
	"fmt"

	"github.com/siddontang/go-mysql/client"
)

type (
	// Conn is one data-plane connection carrying a single in-flight
	// statement at a time.
	Conn interface {
		Execute(query string) error
		Close() error
	}

	// Dialer opens a fresh data-plane connection.
	Dialer func() (Conn, error)

	mysqlConn struct {
		conn *client.Conn
	}
)

// MySQLDialer connects over the text protocol without credentials, which
// is how the search daemon's SQL listener expects clients.
func MySQLDialer(addr string) Dialer {
	return func() (Conn, error) {
		conn, err := client.Connect(addr, "", "", "")
		if err != nil {
			return nil, fmt.Errorf("client.Connect failed: %w", err)
		}
		return &mysqlConn{conn: conn}, nil
	}
}

func (c *mysqlConn) Execute(query string) error {
	if _, err := c.conn.Execute(query); err != nil {
		return fmt.Errorf("conn.Execute failed: %w", err)
	}
	return nil
}

func (c *mysqlConn) Close() error {
	return c.conn.Close()
}
