package filtering

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type excludeListFilter struct {
	path   string
	logins map[string]struct{}
}

// NewExcludeList creates a filter that removes usernames listed in the
// exclude file configured under selection.exclude-file.
func NewExcludeList() Filter {
	return &excludeListFilter{}
}

func (f *excludeListFilter) Name() string { return "exclude_list" }

func (f *excludeListFilter) Disable(string) {}

func (f *excludeListFilter) IsEnabled() bool { return true }

func (f *excludeListFilter) Validate(cfg *Config) error {
	f.path = ""
	f.logins = nil
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	if f.path == "" {
		return nil
	}

	logins, err := ReadExcludeFile(f.path)
	if err != nil {
		return fmt.Errorf("reading exclude file: %w", err)
	}
	f.logins = logins
	return nil
}

func (f *excludeListFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if len(f.logins) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	removed := c.Exclude(func(item *Candidate) bool {
		_, ok := f.logins[strings.ToLower(item.Login())]
		return ok
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding usernames based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_usernames", removed),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *excludeListFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
		details["usernames"] = strconv.Itoa(len(f.logins))
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

// ReadExcludeFile parses one login per line. Blank lines and lines starting
// with # are ignored; logins are matched case-insensitively.
func ReadExcludeFile(path string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	logins := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		logins[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return logins, nil
}
