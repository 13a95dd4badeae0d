// Package scoring ranks GitHub profiles against a domain spec.
package scoring

import (
	"strings"

	"github.com/spigell/expert-scout/internal/domains"
	"github.com/spigell/expert-scout/internal/github"
)

const (
	MaxScore = 100

	keywordPoints   = 5
	keywordCap      = 25
	completenessPts = 5
)

type tier struct {
	min    int
	points int
}

// Tiers are ordered from the highest threshold down.
var (
	followerTiers = []tier{{100, 30}, {50, 25}, {20, 20}, {10, 15}, {5, 10}}
	repoTiers     = []tier{{50, 25}, {30, 20}, {20, 15}, {10, 10}}
)

// Breakdown holds the per-criterion points that add up to a score.
type Breakdown struct {
	Followers    int
	Repos        int
	Keywords     int
	Completeness int
}

func (b Breakdown) Total() int {
	return b.Followers + b.Repos + b.Keywords + b.Completeness
}

// Score returns the relevance of user for spec in [0, 100].
func Score(user *github.User, spec domains.Spec) int {
	return Explain(user, spec).Total()
}

// Explain returns the score split by criterion.
func Explain(user *github.User, spec domains.Spec) Breakdown {
	if user == nil {
		return Breakdown{}
	}

	b := Breakdown{
		Followers: tierPoints(followerTiers, user.Followers),
		Repos:     tierPoints(repoTiers, user.PublicRepos),
	}

	b.Keywords = min(MatchedKeywords(user.Bio, spec.BioKeywords)*keywordPoints, keywordCap)

	for _, field := range []string{user.Name, user.Bio, user.Location, user.Blog} {
		if strings.TrimSpace(field) != "" {
			b.Completeness += completenessPts
		}
	}

	return b
}

// IsRelevant reports whether any bio keyword of spec occurs in the user's bio.
func IsRelevant(user *github.User, spec domains.Spec) bool {
	if user == nil {
		return false
	}
	bio := strings.ToLower(user.Bio)
	for _, kw := range spec.BioKeywords {
		if kw != "" && strings.Contains(bio, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// MatchedKeywords counts distinct keywords that are case-insensitive substrings of text.
func MatchedKeywords(text string, keywords []string) int {
	text = strings.ToLower(text)
	if text == "" {
		return 0
	}

	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		if strings.Contains(text, kw) {
			seen[kw] = struct{}{}
		}
	}
	return len(seen)
}

func tierPoints(tiers []tier, value int) int {
	for _, t := range tiers {
		if value >= t.min {
			return t.points
		}
	}
	return 0
}
