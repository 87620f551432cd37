// Package shops holds the locally configured store credentials.
//
// Shops live in the shopadmin config file under the "shops" list:
//
//	api_version: "2025-10"
//	default_shop: acme
//	shops:
//	  - name: acme
//	    url: https://acme.myshopify.com
//	    token: shpat_xxx
//	    added_at: 2025-01-02T15:04:05Z
package shops

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

var (
	ErrNoShops      = errors.New(`no shops configured, add one to the "shops" list of your config file`)
	ErrShopNotFound = errors.New("shop not found")
	ErrAPIVersion   = errors.New(`API version not configured. Please add "api_version" to your config file (example: api_version: "2025-10")`)
)

type Shop struct {
	Name        string
	URL         string
	AccessToken string
	AddedAt     time.Time
}

// Domain returns the bare store host used to build the Admin API endpoint.
func (s Shop) Domain() (string, error) {
	host := strings.TrimSpace(s.URL)
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.ToLower(host)

	dn, err := publicsuffix.Parse(host)
	if err != nil {
		return "", fmt.Errorf("shop %q: invalid url %q: %w", s.Name, s.URL, err)
	}
	if dn.SLD == "" {
		return "", fmt.Errorf("shop %q: url %q has no store name", s.Name, s.URL)
	}
	return dn.String(), nil
}

// MaskedToken shows the first 10 characters of the access token.
func (s Shop) MaskedToken() string {
	if len(s.AccessToken) <= 10 {
		return s.AccessToken
	}
	return s.AccessToken[:10] + "..."
}

// Store is a keyed lookup of named store configurations.
type Store interface {
	List() ([]Shop, error)
	Get(name string) (Shop, error)
	APIVersion() (string, error)
	DefaultShop() string
}

type shopEntry struct {
	Name    string `mapstructure:"name"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	AddedAt string `mapstructure:"added_at"`
}

// ViperStore reads shops from a viper instance.
type ViperStore struct {
	v *viper.Viper
}

func NewViperStore(v *viper.Viper) *ViperStore {
	return &ViperStore{v: v}
}

func (s *ViperStore) List() ([]Shop, error) {
	var entries []shopEntry
	if err := s.v.UnmarshalKey("shops", &entries); err != nil {
		return nil, fmt.Errorf("reading shops from config: %w", err)
	}

	out := make([]Shop, 0, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("shops[%d]: missing name", i)
		}
		shop := Shop{
			Name:        e.Name,
			URL:         strings.TrimSuffix(e.URL, "/"),
			AccessToken: e.Token,
		}
		if e.AddedAt != "" {
			t, err := time.Parse(time.RFC3339, e.AddedAt)
			if err != nil {
				return nil, fmt.Errorf("shop %q: bad added_at: %w", e.Name, err)
			}
			shop.AddedAt = t
		}
		out = append(out, shop)
	}
	return out, nil
}

func (s *ViperStore) Get(name string) (Shop, error) {
	all, err := s.List()
	if err != nil {
		return Shop{}, err
	}
	for _, shop := range all {
		if shop.Name == name {
			return shop, nil
		}
	}
	return Shop{}, fmt.Errorf("%w: %q", ErrShopNotFound, name)
}

func (s *ViperStore) APIVersion() (string, error) {
	version := s.v.GetString("api_version")
	if version == "" {
		return "", ErrAPIVersion
	}
	return version, nil
}

func (s *ViperStore) DefaultShop() string {
	return s.v.GetString("default_shop")
}

// Resolve picks the shop a command runs against: the explicit name, then the
// configured default, then the only configured shop, then whatever choose
// returns.
func Resolve(store Store, explicit string, choose func([]Shop) (string, error)) (Shop, error) {
	if explicit != "" {
		return store.Get(explicit)
	}

	if def := store.DefaultShop(); def != "" {
		shop, err := store.Get(def)
		if err == nil {
			return shop, nil
		}
		if !errors.Is(err, ErrShopNotFound) {
			return Shop{}, err
		}
	}

	all, err := store.List()
	if err != nil {
		return Shop{}, err
	}
	switch len(all) {
	case 0:
		return Shop{}, ErrNoShops
	case 1:
		return all[0], nil
	}

	if choose == nil {
		return Shop{}, fmt.Errorf("%d shops configured, pick one with --shop", len(all))
	}
	name, err := choose(all)
	if err != nil {
		return Shop{}, err
	}
	return store.Get(name)
}
