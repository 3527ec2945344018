package artifact

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"jan-server/services/quadchart-api/internal/utils/idgen"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const (
	namePrefix    = "quad_chart_"
	nameExtension = ".pptx"
	defaultOwner  = "doc"
	maxOwnerLen   = 64
)

var namePattern = regexp.MustCompile(`^quad_chart_[a-zA-Z0-9]{1,64}_[0-9a-z]{26}\.pptx$`)

// NewName builds a fresh artifact name tying the file to its owner and creation time.
func NewName(owner string) string {
	return namePrefix + ownerSegment(owner) + "_" + idgen.NewULID() + nameExtension
}

// ValidateName rejects anything that is not a generated artifact name.
func ValidateName(ctx context.Context, name string) error {
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) || !namePattern.MatchString(name) {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidFilename,
			"invalid artifact file name", nil, "artifact-name-invalid-001", map[string]any{"file_name": name})
	}
	return nil
}

func ownerSegment(owner string) string {
	var b strings.Builder
	for _, r := range owner {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
		if b.Len() == maxOwnerLen {
			break
		}
	}
	if b.Len() == 0 {
		return defaultOwner
	}
	return b.String()
}
