package utils

import (
	"log"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// CountryResolver maps a client IP to an ISO country code.
type CountryResolver struct {
	db       *geoip2.Reader
	local    string // loopback / private addresses
	fallback string // lookup failures
}

// NewCountryResolver opens the MaxMind database at dbPath. An empty path gives a resolver
// that answers local or fallback only.
func NewCountryResolver(dbPath, localCountry, fallbackCountry string) (*CountryResolver, error) {
	r := &CountryResolver{local: localCountry, fallback: fallbackCountry}
	if r.local == "" {
		r.local = "TR"
	}
	if r.fallback == "" {
		r.fallback = "US"
	}
	if dbPath == "" {
		return r, nil
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	r.db = db
	return r, nil
}

func (r *CountryResolver) Country(ip string) string {
	ip = strings.TrimSpace(ip)
	ip = strings.TrimPrefix(ip, "::ffff:")
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return r.fallback
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return r.local
	}
	if r.db == nil {
		return r.fallback
	}
	rec, err := r.db.Country(parsed)
	if err != nil || rec.Country.IsoCode == "" {
		if err != nil {
			log.Printf("[geo] lookup failed ip=%s: %v", ip, err)
		}
		return r.fallback
	}
	return rec.Country.IsoCode
}

func (r *CountryResolver) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
