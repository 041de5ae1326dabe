package server

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/fetch"
)

var blockedHosts = map[string]struct{}{
	"localhost":                {},
	"metadata.google.internal": {},
}

var errNotTarget = errors.New("принимаются только http(s) URL и HTML-разметка")

// checkTarget не пускает API к локальным файлам и внутренним адресам.
// Ввод без '<' считается путём и отклоняется без обращения к диску.
func checkTarget(input string, check func(*url.URL) error) error {
	s := strings.TrimSpace(input)
	if fetch.IsURL(s) {
		u, err := url.Parse(s)
		if err != nil {
			return err
		}
		return check(u)
	}
	if strings.Contains(s, "<") {
		return nil
	}
	return errNotTarget
}

// checkURL проверяет один адрес; вызывается и для каждого редиректа.
// Имена хостов не резолвятся: проверяются только литералы и известные имена.
func checkURL(u *url.URL) error {
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")

	if _, ok := blockedHosts[host]; ok || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("адрес %s запрещён: локальный хост", host)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
		return fmt.Errorf("адрес %s запрещён: внутренняя сеть", host)
	}
	return nil
}
