package directory

import (
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"hostpool/internal/config"
)

// Client validates account names against an LDAP directory. It is used to
// check that a cloud's owner and cc users exist before accepting them.
type Client struct {
	cfg config.LDAPConfig
}

func NewClient(cfg config.LDAPConfig) *Client {
	return &Client{cfg: cfg}
}

// VerifyAccounts checks that every given name resolves to exactly one
// directory entry. Empty names are skipped.
func (c *Client) VerifyAccounts(names ...string) error {
	conn, err := c.connect()
	if err != nil {
		return fmt.Errorf("ldap connect: %w", err)
	}
	defer conn.Close()

	if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
		return fmt.Errorf("ldap service bind: %w", err)
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		filter := fmt.Sprintf(c.cfg.UserFilter, ldap.EscapeFilter(name))
		searchReq := ldap.NewSearchRequest(
			c.cfg.BaseDN,
			ldap.ScopeWholeSubtree,
			ldap.NeverDerefAliases, 0, 30, false,
			filter,
			[]string{"dn", c.cfg.UsernameAttr},
			nil,
		)

		result, err := conn.Search(searchReq)
		if err != nil {
			return fmt.Errorf("ldap search for %q: %w", name, err)
		}
		if len(result.Entries) != 1 {
			return fmt.Errorf("account %q not found or ambiguous: %d results", name, len(result.Entries))
		}
	}
	return nil
}

func (c *Client) connect() (*ldap.Conn, error) {
	tlsCfg := &tls.Config{InsecureSkipVerify: c.cfg.SkipVerify}

	if strings.HasPrefix(c.cfg.URL, "ldaps://") {
		return ldap.DialURL(c.cfg.URL, ldap.DialWithTLSConfig(tlsCfg))
	}

	conn, err := ldap.DialURL(c.cfg.URL)
	if err != nil {
		return nil, err
	}

	if c.cfg.StartTLS {
		if err := conn.StartTLS(tlsCfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	return conn, nil
}
