// Package script converts headwords between Chinese script variants.
package script

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/longbridgeapp/opencc"
)

// DefaultProfile converts traditional characters to simplified ones.
const DefaultProfile = "t2s"

// Converter maps a headword to its variant in another script.
type Converter interface {
	Convert(s string) (string, error)
}

// OpenCC converts with an OpenCC dictionary profile.
type OpenCC struct {
	cc *opencc.OpenCC
}

// NewOpenCC loads the dictionaries of profile (e.g. "t2s", "s2t").
func NewOpenCC(profile string) (*OpenCC, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	cc, err := opencc.New(profile)
	if err != nil {
		return nil, fmt.Errorf("load opencc profile %q: %w", profile, err)
	}
	return &OpenCC{cc: cc}, nil
}

func (o *OpenCC) Convert(s string) (string, error) {
	return o.cc.Convert(s)
}

// Cached memoizes an underlying converter. Headwords repeat across sources
// and the dictionary walk is the slow part of a row.
type Cached struct {
	next  Converter
	cache *lru.Cache[string, string]
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next Converter, size int) (*Cached, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create script cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Convert(s string) (string, error) {
	if v, ok := c.cache.Get(s); ok {
		return v, nil
	}
	v, err := c.next.Convert(s)
	if err != nil {
		return "", err
	}
	c.cache.Add(s, v)
	return v, nil
}

// Identity returns its input unchanged.
type Identity struct{}

func (Identity) Convert(s string) (string, error) { return s, nil }

// Func adapts a plain function to Converter.
type Func func(string) (string, error)

func (f Func) Convert(s string) (string, error) { return f(s) }

// New builds the converter used by the importer: OpenCC for profile, cached
// when cacheSize is positive. The "identity" profile disables conversion.
func New(profile string, cacheSize int) (Converter, error) {
	var conv Converter
	if profile == "identity" {
		conv = Identity{}
	} else {
		cc, err := NewOpenCC(profile)
		if err != nil {
			return nil, err
		}
		conv = cc
	}

	if cacheSize <= 0 {
		return conv, nil
	}
	return NewCached(conv, cacheSize)
}

// Variants converts headword and returns it as a one-element variant list.
func Variants(c Converter, headword string) ([]string, error) {
	v, err := c.Convert(headword)
	if err != nil {
		return nil, fmt.Errorf("convert %q: %w", headword, err)
	}
	return []string{v}, nil
}
