// Package pathconv maps notes to their on-disk pair: the content file
// "<name>.md" and the children directory "<name>.md.d" next to it.
package pathconv

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/arbor/internal/apperr"
)

const (
	// FileExt is the suffix of a note's content file.
	FileExt = ".md"
	// DirMarker is appended to the content file name to form the children directory.
	DirMarker = ".d"
	// DirExt is the full suffix of a children directory.
	DirExt = FileExt + DirMarker

	maxNameBytes = 255 - len(DirExt)
)

var (
	reservedChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	reservedNames = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])$`)
)

// ValidateName reports whether name can be used as a note name on every
// platform the workspace may be synced to.
func ValidateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.By(func(value interface{}) error {
			s, _ := value.(string)
			switch {
			case len(s) > maxNameBytes:
				return errors.New("is too long")
			case s == "." || s == "..":
				return errors.New("is a relative path element")
			case reservedChars.MatchString(s):
				return errors.New("contains a reserved character")
			case reservedNames.MatchString(s):
				return errors.New("is a reserved device name")
			case strings.HasSuffix(s, ".") || strings.HasSuffix(s, " "):
				return errors.New("must not end with a dot or space")
			}
			return nil
		}),
	)
	if err != nil {
		return apperr.New(apperr.ErrInvalidName, "validate name", name, err)
	}
	return nil
}

// ChildDir returns the children directory of a note called name under parentDir.
func ChildDir(parentDir, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(parentDir, name+DirExt), nil
}

// DirToFile strips the directory marker from a children directory path.
func DirToFile(dirPath string) string {
	return strings.TrimSuffix(dirPath, DirMarker)
}

// FileToDir appends the directory marker to a content file path.
func FileToDir(filePath string) string {
	return filePath + DirMarker
}

// DisplayName is the note title encoded in dirPath.
func DisplayName(dirPath string) string {
	base := filepath.Base(dirPath)
	return strings.TrimSuffix(strings.TrimSuffix(base, DirMarker), FileExt)
}

// IsChildDirName reports whether a directory entry name follows the
// children directory convention.
func IsChildDirName(name string) bool {
	return len(name) > len(DirExt) && strings.HasSuffix(name, DirExt)
}

// IsUnder reports whether path lies strictly inside dir.
func IsUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// NotePath returns the slash separated chain of note names leading from
// root to dir, e.g. "Projects/Arbor". The root itself is "".
func NotePath(root, dir string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, part := range parts {
		if !IsChildDirName(part) {
			return "", errors.New("not a note directory: " + dir)
		}
		parts[i] = strings.TrimSuffix(part, DirExt)
	}
	return strings.Join(parts, "/"), nil
}

// DirFromNotePath is the inverse of NotePath. Every name in notePath is
// validated.
func DirFromNotePath(root, notePath string) (string, error) {
	dir := root
	notePath = strings.Trim(notePath, "/")
	if notePath == "" {
		return dir, nil
	}
	for _, name := range strings.Split(notePath, "/") {
		next, err := ChildDir(dir, name)
		if err != nil {
			return "", err
		}
		dir = next
	}
	return dir, nil
}
