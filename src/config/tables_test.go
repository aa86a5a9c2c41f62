package config

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/sanitizer"
)

func TestLoadTables_TOML(t *testing.T) {
	path := writeTemp(t, "tables.toml", `
version = "custom-1"
naughty_tags = ["marquee", "script"]
keywords = ["javascript"]

[[never_allowed]]
find = "document.domain"
replace = "[removed]"
`)

	got, err := LoadTables(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Version != "custom-1" {
		t.Errorf("version = %q, want %q", got.Version, "custom-1")
	}
	if !slices.Equal(got.NaughtyTags, []string{"marquee", "script"}) {
		t.Errorf("naughty tags = %v", got.NaughtyTags)
	}
	if len(got.NeverAllowed) != 1 || got.NeverAllowed[0].Find != "document.domain" {
		t.Errorf("never allowed = %+v", got.NeverAllowed)
	}
	if got.Functions != nil {
		t.Errorf("functions = %v, want nil for an absent key", got.Functions)
	}
}

func TestLoadTables_JSON(t *testing.T) {
	path := writeTemp(t, "tables.json", `{
		"evilAttributes": ["on\\w+", "srcdoc"],
		"functions": []
	}`)

	got, err := LoadTables(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got.EvilAttributes, []string{`on\w+`, "srcdoc"}) {
		t.Errorf("evil attributes = %v", got.EvilAttributes)
	}
	if got.Functions == nil || len(got.Functions) != 0 {
		t.Errorf("functions = %#v, want an empty non-nil list", got.Functions)
	}
}

func TestLoadTables_Errors(t *testing.T) {
	t.Run("unknown extension", func(t *testing.T) {
		path := writeTemp(t, "tables.yaml", "keywords: []")
		_, err := LoadTables(path)
		if !errors.Is(err, ErrUnknownTablesFormat) {
			t.Errorf("error = %v, want ErrUnknownTablesFormat", err)
		}
	})

	t.Run("bad toml", func(t *testing.T) {
		path := writeTemp(t, "tables.toml", "keywords = [")
		if _, err := LoadTables(path); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := LoadTables(filepath.Join(t.TempDir(), "none.json")); err == nil {
			t.Fatal("expected read error")
		}
	})
}

func TestMergeTables(t *testing.T) {
	base := sanitizer.DefaultTables()

	t.Run("empty override keeps base", func(t *testing.T) {
		merged := MergeTables(base, sanitizer.Tables{})
		if merged.Version != base.Version {
			t.Errorf("version = %q, want %q", merged.Version, base.Version)
		}
		if !slices.Equal(merged.Keywords, base.Keywords) {
			t.Error("keywords changed without an override")
		}
	})

	t.Run("set fields replace", func(t *testing.T) {
		merged := MergeTables(base, sanitizer.Tables{
			Version:     "v2",
			NaughtyTags: []string{"marquee"},
			Functions:   []string{},
		})
		if merged.Version != "v2" {
			t.Errorf("version = %q, want v2", merged.Version)
		}
		if !slices.Equal(merged.NaughtyTags, []string{"marquee"}) {
			t.Errorf("naughty tags = %v, want [marquee]", merged.NaughtyTags)
		}
		if len(merged.Functions) != 0 {
			t.Errorf("functions = %v, want cleared", merged.Functions)
		}
		if !slices.Equal(merged.EvilAttributes, base.EvilAttributes) {
			t.Error("evil attributes should be inherited")
		}
	})
}
