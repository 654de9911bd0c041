package binary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/junie/internal/config"
	"github.com/ZebulonRouseFrantzich/junie/internal/platform"
)

// BuildDownloadURL returns the archive URL for target. A non-empty override
// is returned verbatim, without any substitution. Otherwise the URL is
//
//	<base>/<version>/junie-eap-<version>-<osName>-<arch>.zip
//
// with base defaulting to config.DefaultReleaseBaseURL.
func BuildDownloadURL(target platform.Target, version, baseURL, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if version == "" {
		return "", errors.New("build download URL: version is required")
	}
	if baseURL == "" {
		baseURL = config.DefaultReleaseBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return fmt.Sprintf("%s/%s/junie-eap-%s-%s-%s.zip",
		baseURL, version, version, target.OSName, target.Arch), nil
}
