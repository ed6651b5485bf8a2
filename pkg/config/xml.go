package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/beevik/etree"
)

// legacyKeys maps element names of the XML config format onto koanf keys
var legacyKeys = map[string]string{
	"download_base":         "staging_root",
	"completed_base":        "destination_root",
	"log_level":             "log_level",
	"log_file":              "log_file",
	"preserve_metadata":     "preserve_metadata",
	"preserve_permissions":  "preserve_permissions",
	"recent_window_seconds": "recency_window",
}

// legacyLevels translates the XML format's verbosity names
var legacyLevels = map[string]string{
	"quiet":   "error",
	"normal":  "warn",
	"verbose": "info",
	"debug":   "debug",
}

// readLegacyXML reads a <config> document of flat elements into koanf
// values. Unknown elements are rejected.
func readLegacyXML(path string) (map[string]interface{}, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to parse %s", path).WithDetail("path", path)
	}

	root := doc.Root()
	if root == nil || root.Tag != "config" {
		return nil, errors.Newf(errors.ErrConfigLoad, "%s: root element must be <config>", path).WithDetail("path", path)
	}

	values := make(map[string]interface{})
	for _, el := range root.ChildElements() {
		key, ok := legacyKeys[el.Tag]
		if !ok {
			return nil, errors.Newf(errors.ErrConfigLoad, "%s: unknown element <%s>", path, el.Tag).
				WithDetail("path", path).WithDetail("element", el.Tag)
		}
		text := strings.TrimSpace(el.Text())

		switch el.Tag {
		case "recent_window_seconds":
			secs, err := strconv.ParseUint(text, 10, 32)
			if err != nil {
				return nil, errors.Newf(errors.ErrConfigLoad, "%s: recent_window_seconds must be a non-negative integer, got %q", path, text).
					WithDetail("path", path)
			}
			values[key] = fmt.Sprintf("%ds", secs)
		case "log_level":
			level, ok := legacyLevels[strings.ToLower(text)]
			if !ok {
				level = text
			}
			values[key] = level
		case "preserve_metadata", "preserve_permissions":
			b, err := strconv.ParseBool(text)
			if err != nil {
				return nil, errors.Newf(errors.ErrConfigLoad, "%s: <%s> must be true or false, got %q", path, el.Tag, text).
					WithDetail("path", path)
			}
			values[key] = b
		default:
			values[key] = text
		}
	}
	return values, nil
}
