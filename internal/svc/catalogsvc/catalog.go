package catalogsvc

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"gopkg.in/yaml.v3"
)

// Catalog is read-only after Load, so it is safe to share without lock.
type Catalog struct {
	categories []Category
	byName     map[string]int
	warning    error
}

// fileCategory accepts both "recipients" and "receivers" key for the recipient list.
type fileCategory struct {
	Name       string          `json:"name" yaml:"name"`
	Code       string          `json:"code" yaml:"code"`
	Recipients []fileRecipient `json:"recipients" yaml:"recipients"`
	Receivers  []fileRecipient `json:"receivers" yaml:"receivers"`
}

type fileRecipient struct {
	Salutation string `json:"salutation" yaml:"salutation"`
	Email      string `json:"email" yaml:"email"`
}

// Empty returns catalog with zero categories.
func Empty() *Catalog {
	return &Catalog{
		categories: make([]Category, 0),
		byName:     map[string]int{},
	}
}

// Load reads catalog file. JSON is the default format, file with .yml or .yaml extension is read as YAML.
// On error the returned catalog is never nil: it is empty and keeps the error as Warning,
// so the caller can continue the session with nothing to send to.
func Load(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: could not find %s", ErrCatalogUnavailable, path)
		} else {
			err = fmt.Errorf("%w: read %s: %s", ErrCatalogUnavailable, path, err)
		}

		return degraded(err), err
	}

	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		format = "yaml"
	default:
		format = "json"
	}

	catalog, err := Parse(content, format)
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		return degraded(err), err
	}

	return catalog, nil
}

// Parse decodes content in the given format ("json" or "yaml") into catalog.
func Parse(content []byte, format string) (*Catalog, error) {
	fileCategories := make([]fileCategory, 0)

	var err error
	switch format {
	case "json":
		err = json.NewDecoder(bytes.NewReader(content)).Decode(&fileCategories)
	case "yaml":
		err = yaml.NewDecoder(bytes.NewReader(content)).Decode(&fileCategories)
	default:
		err = fmt.Errorf("unknown format '%s'", format)
	}

	if err != nil {
		err = fmt.Errorf("%w: %s", ErrCatalogMalformed, err)
		return degraded(err), err
	}

	catalog := Empty()
	codes := map[string]struct{}{}
	for i, fc := range fileCategories {
		fileRecipients := fc.Recipients
		if len(fileRecipients) == 0 {
			fileRecipients = fc.Receivers
		}

		category := Category{
			Name:       strings.TrimSpace(fc.Name),
			Code:       strings.TrimSpace(fc.Code),
			Recipients: make([]Recipient, 0, len(fileRecipients)),
		}

		for _, fr := range fileRecipients {
			category.Recipients = append(category.Recipients, Recipient{
				Salutation: strings.TrimSpace(fr.Salutation),
				Email:      strings.TrimSpace(fr.Email),
			})
		}

		if err = validator.Validate(category); err != nil {
			err = fmt.Errorf("%w: category index %d: %s", ErrCatalogMalformed, i, err)
			return degraded(err), err
		}

		if _, exist := catalog.byName[category.Name]; exist {
			err = fmt.Errorf("%w: duplicate category name '%s'", ErrCatalogMalformed, category.Name)
			return degraded(err), err
		}

		if _, exist := codes[category.Code]; exist {
			err = fmt.Errorf("%w: duplicate category code '%s'", ErrCatalogMalformed, category.Code)
			return degraded(err), err
		}

		codes[category.Code] = struct{}{}
		catalog.byName[category.Name] = len(catalog.categories)
		catalog.categories = append(catalog.categories, category)
	}

	return catalog, nil
}

func degraded(warning error) *Catalog {
	c := Empty()
	c.warning = warning
	return c
}

// Warning is the load error kept for the operator, nil when catalog loaded fine.
func (c *Catalog) Warning() error {
	return c.warning
}

// Len is the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}

// Categories in file order. The returned slice is a copy.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, len(c.categories))
	for _, category := range c.categories {
		out = append(out, category.clone())
	}

	return out
}

func (c *Catalog) Lookup(name string) (Category, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Category{}, false
	}

	return c.categories[i].clone(), true
}

// MustLookup panics when name is not in the catalog.
// Names shown to the operator are always taken from this catalog, so a miss is a programming error.
func (c *Catalog) MustLookup(name string) Category {
	category, ok := c.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("catalogsvc: category '%s' is not in the catalog", name))
	}

	return category
}
