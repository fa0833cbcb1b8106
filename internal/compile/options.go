package compile

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mark3labs/qigen/internal/ir"
)

// BuildOption configures how the Service is built from a document.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[ir.Method]struct{}
	pathRes     []*regexp.Regexp
	errs        []error
	logger      *slog.Logger
}

func newBuildConfig(opts []BuildOption) (*buildConfig, error) {
	cfg := &buildConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.errs) > 0 {
		return nil, cfg.errs[0]
	}
	return cfg, nil
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags drops operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only operations declared under one of methods.
func WithMethods(methods []ir.Method) BuildOption {
	return func(c *buildConfig) {
		if len(methods) == 0 {
			return
		}
		if c.methods == nil {
			c.methods = make(map[ir.Method]struct{}, len(methods))
		}
		for _, m := range methods {
			c.methods[ir.Method(strings.ToLower(string(m)))] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only operations whose URI matches at least one of
// the regular expressions. An invalid pattern makes Build fail.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				c.errs = append(c.errs, fmt.Errorf("path pattern %q: %w", p, err))
				continue
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// WithLogger routes build progress messages to logger.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func (c *buildConfig) allow(method ir.Method, uri string, tags []string) bool {
	if len(c.methods) > 0 {
		if _, ok := c.methods[method]; !ok {
			return false
		}
	}
	if len(c.pathRes) > 0 {
		matched := false
		for _, re := range c.pathRes {
			if re.MatchString(uri) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}
