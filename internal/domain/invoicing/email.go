package invoicing

import (
	"net/mail"
	"strings"

	"github.com/invoicely/backend/internal/domain/shared"
)

// ParseEmailAddress validates one address and returns it without a display name
func ParseEmailAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", shared.NewDomainError("INVALID_EMAIL", "Email address is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", shared.NewDomainError("INVALID_EMAIL", "Invalid email address: "+raw)
	}
	return addr.Address, nil
}

// ParseEmailList splits a comma separated list of addresses. Blank entries
// are skipped and repeated addresses are kept once.
func ParseEmailList(raw string) ([]string, error) {
	var (
		list []string
		seen = make(map[string]struct{})
	)
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		addr, err := ParseEmailAddress(part)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		list = append(list, addr)
	}
	return list, nil
}
