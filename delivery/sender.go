package delivery

import (
	"net/mail"
	"strings"
)

// DefaultSenderName is used when the configured sender carries no display name.
const DefaultSenderName = "Dra. Cláusula"

// Sender is the From identity of outgoing mail.
type Sender struct {
	Name  string
	Email string
}

// ParseSender accepts "Name <addr>" or a bare address. Values that do not
// parse as an address are kept verbatim as the email.
func ParseSender(s string) Sender {
	s = strings.TrimSpace(s)
	if addr, err := mail.ParseAddress(s); err == nil {
		name := addr.Name
		if name == "" {
			name = DefaultSenderName
		}
		return Sender{Name: name, Email: addr.Address}
	}

	email := s
	if i := strings.LastIndex(s, "<"); i >= 0 {
		email = strings.Trim(s[i+1:], " >")
	}
	return Sender{Name: DefaultSenderName, Email: email}
}
