package collab

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

// Profile describes an application under test. It is authored by hand
// in YAML and stands in for a live crawl of the application.
type Profile struct {
	App      string           `yaml:"app"`
	BaseURL  string           `yaml:"base_url"`
	Pages    []ProfilePage    `yaml:"pages"`
	Elements []ProfileElement `yaml:"elements"`
}

// ProfilePage is one page or route of the application.
type ProfilePage struct {
	Path  string `yaml:"path"`
	Title string `yaml:"title,omitempty"`
}

// ProfileElement is one interactable element declared in a profile.
type ProfileElement struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Selector string            `yaml:"selector,omitempty"`
	Page     string            `yaml:"page,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
}

// LoadProfile reads and validates a profile YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.App == "" {
		return nil, fmt.Errorf("profile %s: app name is required", path)
	}
	return &p, nil
}

// ProfileDiscoverer produces a DiscoveryResult from a static profile
// instead of crawling a live application.
type ProfileDiscoverer struct{}

// Discover converts the profile's declared pages and elements into a
// DiscoveryResult.
func (ProfileDiscoverer) Discover(ctx context.Context, profile *Profile) (*DiscoveryResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("no profile provided")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &DiscoveryResult{
		AppName: profile.App,
		BaseURL: profile.BaseURL,
	}
	for _, pg := range profile.Pages {
		res.Pages = append(res.Pages, pg.Path)
	}
	for _, el := range profile.Elements {
		res.Elements = append(res.Elements, pipeline.Element{
			Name:       el.Name,
			Kind:       el.Kind,
			Selector:   el.Selector,
			Page:       el.Page,
			Attributes: el.Attrs,
		})
	}
	return res, nil
}

// NoopRetriever is the default Retriever: it has no corpus and always
// returns no snippets. Planning degrades gracefully without retrieval.
type NoopRetriever struct{}

func (NoopRetriever) Search(ctx context.Context, query string, k int) ([]Snippet, error) {
	return nil, nil
}
