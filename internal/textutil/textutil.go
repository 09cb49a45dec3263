// Package textutil holds the small text-processing helpers shared by every
// provider and scraper adapter: HTML stripping, skill-tag extraction and
// Swiss canton detection from a free-form location string.
package textutil

import (
	"regexp"
	"strings"
)

var (
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// StripHTMLTags removes HTML tags and collapses whitespace, matching the
// lossy-but-good-enough approach adapters use on API description fields
// that arrive as raw HTML.
func StripHTMLTags(s string) string {
	if s == "" {
		return ""
	}
	cleaned := tagRe.ReplaceAllString(s, " ")
	cleaned = spacesRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// techTags is the fixed vocabulary of skills/technologies a description is
// scanned against. Order is significant: it's the order tags are returned in.
var techTags = []string{
	"python", "javascript", "typescript", "java", "php", "ruby", "go", "rust",
	"c++", "c#", "swift", "kotlin", "scala", "r",
	"react", "angular", "vue.js", "next.js", "svelte", "tailwindcss",
	"node.js", "django", "flask", "fastapi", "spring", "laravel", "express",
	"rails", "asp.net", ".net",
	"machine learning", "data science", "deep learning", "nlp", "tensorflow",
	"pytorch", "pandas", "spark",
	"sql", "postgresql", "mysql", "mongodb", "redis", "elasticsearch", "oracle",
	"sqlite",
	"docker", "kubernetes", "aws", "azure", "gcp", "terraform", "ansible",
	"ci/cd", "jenkins", "github actions",
	"git", "linux", "jira", "figma", "graphql", "rest api",
	"devops", "sre", "qa", "cybersecurity", "blockchain", "product manager",
	"scrum master",
}

// maxExtractedSkills bounds ExtractJobSkills' return, independent of
// domain.MaxTags which bounds the final tag list after merging with
// API-supplied tags.
const maxExtractedSkills = 15

// ExtractJobSkills scans title+description for any of the fixed tech-tag
// vocabulary, case-insensitively, returning at most 15 matches in
// vocabulary order.
func ExtractJobSkills(title, description string) []string {
	combined := strings.ToLower(title + " " + description)
	var found []string
	for _, tag := range techTags {
		if strings.Contains(combined, tag) {
			found = append(found, tag)
			if len(found) >= maxExtractedSkills {
				break
			}
		}
	}
	return found
}

// worldwideSynonyms are location strings that mean "anywhere", normalized
// to "Remote / Worldwide" by ProcessLocation.
var worldwideSynonyms = map[string]bool{
	"worldwide": true, "remote": true, "anywhere": true, "global": true,
	"n/a": true, "-": true, "various": true, "multiple countries": true,
	"all regions": true, "international": true, "any location": true,
	"work from home": true, "wfh": true, "distributed": true,
	"location independent": true,
}

// swissCantons maps lowercase name variants in DE/FR/IT/EN to their
// 2-letter canton code.
var swissCantons = map[string]string{
	"zurich": "ZH", "zürich": "ZH", "zh": "ZH",
	"bern": "BE", "berne": "BE", "be": "BE",
	"luzern": "LU", "lucerne": "LU", "lu": "LU",
	"uri": "UR", "ur": "UR",
	"schwyz": "SZ", "sz": "SZ",
	"obwalden": "OW", "ow": "OW",
	"nidwalden": "NW", "nw": "NW",
	"glarus": "GL", "gl": "GL",
	"zug": "ZG", "zg": "ZG",
	"fribourg": "FR", "freiburg": "FR",
	"solothurn": "SO", "so": "SO",
	"basel-stadt": "BS", "basel": "BS", "bs": "BS", "bâle": "BS",
	"basel-landschaft": "BL", "bl": "BL",
	"schaffhausen": "SH", "sh": "SH",
	"appenzell ausserrhoden": "AR", "ar": "AR",
	"appenzell innerrhoden": "AI",
	"st. gallen": "SG", "st.gallen": "SG", "sg": "SG", "saint-gall": "SG",
	"graubünden": "GR", "graubunden": "GR", "grisons": "GR", "gr": "GR",
	"aargau": "AG", "argovie": "AG", "ag": "AG",
	"thurgau": "TG", "thurgovie": "TG", "tg": "TG",
	"ticino": "TI", "tessin": "TI", "ti": "TI",
	"vaud": "VD", "waadt": "VD", "vd": "VD",
	"valais": "VS", "wallis": "VS", "vs": "VS",
	"neuchâtel": "NE", "neuchatel": "NE", "ne": "NE",
	"genève": "GE", "geneva": "GE", "genf": "GE", "ge": "GE",
	"jura": "JU", "ju": "JU",
}

// ExtractCanton tries to resolve a Swiss canton 2-letter code from a
// free-form location string: a direct match first, then a substring match
// restricted to names longer than 2 characters to avoid matching the
// 2-letter codes against unrelated substrings. Among substring matches the
// longest name wins ("zurich" over "uri"), ties going to the name that
// sorts first.
func ExtractCanton(location string) (string, bool) {
	if location == "" {
		return "", false
	}
	lower := strings.ToLower(strings.TrimSpace(location))
	if code, ok := swissCantons[lower]; ok {
		return code, true
	}
	best, bestCode := "", ""
	for name, code := range swissCantons {
		if len(name) <= 2 || !strings.Contains(lower, name) {
			continue
		}
		if len(name) > len(best) || (len(name) == len(best) && name < best) {
			best, bestCode = name, code
		}
	}
	if best == "" {
		return "", false
	}
	return bestCode, true
}

// ProcessLocation standardizes a raw location string: worldwide synonyms
// collapse to "Remote / Worldwide", an empty string becomes "Unknown", and
// everything else passes through trimmed but otherwise unchanged.
func ProcessLocation(location string) string {
	stripped := strings.TrimSpace(location)
	if stripped == "" {
		return "Unknown"
	}
	if worldwideSynonyms[strings.ToLower(stripped)] {
		return "Remote / Worldwide"
	}
	return stripped
}

// MergeTags combines two tag lists, deduplicating case-insensitively while
// preserving first-seen order — the pattern every provider uses to combine
// an API's own tags with the extracted skill vocabulary.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, tag)
		}
	}
	return merged
}
