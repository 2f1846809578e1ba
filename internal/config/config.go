// Package config parses seed documents declaring the files and directories
// injected into the virtual filesystem at startup.
package config

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vshell/internal/logging"
	"vshell/internal/vfs"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	logger = logging.GetLogger().WithPrefix("config")
)

// Format selects the seed document syntax.
type Format int

const (
	// FormatXML is the default seed syntax
	FormatXML Format = iota
	// FormatYAML is selected by a .yaml or .yml extension
	FormatYAML
)

// FormatForPath picks the document format from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatXML
	}
}

// xmlDocument accepts any root element holding one <filesystem> section.
type xmlDocument struct {
	XMLName     xml.Name
	Filesystems []xmlFilesystem `xml:"filesystem"`
}

type xmlFilesystem struct {
	Files       []xmlFile      `xml:"file"`
	Directories []xmlDirectory `xml:"directory"`
}

type xmlFile struct {
	Name        *string      `xml:"name,attr"`
	Permissions *string      `xml:"permissions,attr"`
	Text        string       `xml:",chardata"`
	Children    []xmlElement `xml:",any"`
}

type xmlElement struct {
	XMLName xml.Name
}

type xmlDirectory struct {
	Name *string `xml:"name,attr"`
}

type yamlDocument struct {
	Filesystem *struct {
		Files []struct {
			Name        *string `yaml:"name"`
			Permissions *string `yaml:"permissions"`
			Content     string  `yaml:"content"`
		} `yaml:"files"`
		Directories []struct {
			Name *string `yaml:"name"`
		} `yaml:"directories"`
	} `yaml:"filesystem"`
}

// Load reads and parses the seed document at path.
func Load(path string) (*vfs.Seed, error) {
	logger.Debug("Loading seed document: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError(errors.Wrapf(err, "failed to read %s", path))
	}

	seed, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "seed document %s", path)
	}

	logger.Info("Seed loaded: %d files, %d directories", len(seed.Files), len(seed.Directories))
	return seed, nil
}

// Parse decodes a seed document. Every failure matches vfs.ErrConfig.
func Parse(data []byte, format Format) (*vfs.Seed, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	default:
		return parseXML(data)
	}
}

func parseXML(data []byte) (*vfs.Seed, error) {
	var doc xmlDocument
	decoder := xml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		return nil, configError(errors.Wrap(err, "malformed XML"))
	}
	if len(doc.Filesystems) == 0 {
		return nil, configError(fmt.Errorf("root <%s> has no <filesystem> section", doc.XMLName.Local))
	}
	if len(doc.Filesystems) > 1 {
		return nil, configError(fmt.Errorf("root <%s> has %d <filesystem> sections, want one", doc.XMLName.Local, len(doc.Filesystems)))
	}
	fsys := doc.Filesystems[0]

	seed := &vfs.Seed{}
	for i, f := range fsys.Files {
		if f.Name == nil || *f.Name == "" {
			return nil, configError(fmt.Errorf("<file> #%d has no name attribute", i+1))
		}
		// Child elements would split the text content.
		if len(f.Children) > 0 {
			return nil, configError(fmt.Errorf("<file name=%q> contains element <%s>", *f.Name, f.Children[0].XMLName.Local))
		}
		seed.Files = append(seed.Files, vfs.FileSeed{
			Name:       *f.Name,
			Content:    strings.TrimSpace(f.Text),
			Permission: permissionOrDefault(f.Permissions),
		})
	}

	for i, d := range fsys.Directories {
		if d.Name == nil || *d.Name == "" {
			return nil, configError(fmt.Errorf("<directory> #%d has no name attribute", i+1))
		}
		seed.Directories = append(seed.Directories, *d.Name)
	}

	return seed, nil
}

func parseYAML(data []byte) (*vfs.Seed, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configError(errors.Wrap(err, "malformed YAML"))
	}
	if doc.Filesystem == nil {
		return nil, configError(errors.New("document has no filesystem section"))
	}

	seed := &vfs.Seed{}
	for i, f := range doc.Filesystem.Files {
		if f.Name == nil || *f.Name == "" {
			return nil, configError(fmt.Errorf("file #%d has no name", i+1))
		}
		seed.Files = append(seed.Files, vfs.FileSeed{
			Name:       *f.Name,
			Content:    strings.TrimSpace(f.Content),
			Permission: permissionOrDefault(f.Permissions),
		})
	}

	for i, d := range doc.Filesystem.Directories {
		if d.Name == nil || *d.Name == "" {
			return nil, configError(fmt.Errorf("directory #%d has no name", i+1))
		}
		seed.Directories = append(seed.Directories, *d.Name)
	}

	return seed, nil
}

func permissionOrDefault(perm *string) string {
	if perm == nil {
		return vfs.DefaultPermission
	}
	return *perm
}

func configError(err error) error {
	return vfs.NewError(vfs.OpSeed, "", fmt.Errorf("%w: %w", vfs.ErrConfig, err))
}
