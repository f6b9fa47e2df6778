package controller

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
)

type RuleType int

const (
	LimitType RuleType = iota
	IntervalType
)

// Rule is one retention clause. "5/delete" keeps the five newest archives; "1d/7d" keeps one archive per
// week among those older than a day; "30d/delete" drops everything older than thirty days.
type Rule struct {
	Type   RuleType
	First  int
	Second int
	Delete bool
}

var magnifiers = map[string]int{
	"min": 60,
	"h":   60 * 60,
	"d":   60 * 60 * 24,
	"m":   60 * 60 * 24 * 30,
	"y":   60 * 60 * 24 * 30 * 12,
}

var (
	reLimit    = regexp.MustCompile(`^(\d+)$`)
	reInterval = regexp.MustCompile(`^(\d+)(min|h|d|m|y)$`)
)

func NewRule(rule string) (Rule, error) {
	parts := strings.Split(strings.TrimSpace(rule), "/")
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("invalid rule format: %s", rule)
	}

	first, t1, err := parseSpec(parts[0])
	if err != nil {
		return Rule{}, err
	}

	r := Rule{Type: t1, First: first}
	if strings.TrimSpace(parts[1]) == "delete" {
		r.Delete = true
		return r, nil
	}
	if t1 == LimitType {
		return Rule{}, fmt.Errorf("limit rule %s must end with /delete", rule)
	}
	second, t2, err := parseSpec(parts[1])
	if err != nil {
		return Rule{}, err
	}
	if t2 != IntervalType || second == 0 {
		return Rule{}, fmt.Errorf("invalid interval in rule %s", rule)
	}
	r.Second = second
	return r, nil
}

func parseSpec(spec string) (int, RuleType, error) {
	spec = strings.TrimSpace(spec)
	// "0" is an age of zero, as in "0/1h"
	if spec == "0" {
		return 0, IntervalType, nil
	}
	if reLimit.MatchString(spec) {
		n, err := strconv.Atoi(reLimit.FindStringSubmatch(spec)[1])
		if err != nil {
			return 0, LimitType, fmt.Errorf("invalid rule format: %s", spec)
		}
		return n, LimitType, nil
	}

	if reInterval.MatchString(spec) {
		m := reInterval.FindStringSubmatch(spec)
		digit, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, LimitType, fmt.Errorf("invalid rule format: %s", spec)
		}
		unit := m[2]
		return digit * magnifiers[unit], IntervalType, nil
	}
	return 0, 0, fmt.Errorf("invalid spec: %s", spec)
}

func parseRules(rules string) ([]Rule, error) {
	parts := strings.Split(rules, ",")
	result := make([]Rule, 0, len(parts))
	for _, part := range parts {
		rule, err := NewRule(part)
		if err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	if len(result) > 1 {
		for _, r := range result {
			if r.Type == LimitType {
				return nil, fmt.Errorf("limit rule cannot be combined with other rules: %s", rules)
			}
		}
	}
	return result, nil
}

// evict picks the archives the rules drop. The first rule decides between limit and interval mode.
func evict(items []entity.ExportArchive, rules []Rule, now time.Time) []entity.ExportArchive {
	if len(rules) == 0 {
		return nil
	}
	sorted := append([]entity.ExportArchive(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimeStamp > sorted[j].TimeStamp
	})

	var eviction []entity.ExportArchive
	if rules[0].Type == LimitType {
		if limit := rules[0].First; limit < len(sorted) {
			eviction = append(eviction, sorted[limit:]...)
		}
		return eviction
	}

	to := now.Unix()
	// buckets are aligned to a Thursday so weekly buckets do not straddle the epoch start
	thursday := int64(4 * 24 * 60 * 60)
	for _, r := range rules {
		var operate []entity.ExportArchive
		for _, x := range sorted {
			if x.TimeStamp/1000 <= to-int64(r.First) {
				operate = append(operate, x)
			}
		}
		if r.Delete {
			eviction = append(eviction, operate...)
			continue
		}
		interval := int64(r.Second)
		groups := make(map[int64][]entity.ExportArchive)
		for _, x := range operate {
			key := (x.TimeStamp/1000 - thursday) / interval
			groups[key] = append(groups[key], x)
		}
		for _, versions := range groups {
			sort.Slice(versions, func(i, j int) bool {
				return versions[i].TimeStamp < versions[j].TimeStamp
			})
			eviction = append(eviction, versions[:len(versions)-1]...)
		}
	}
	return uniqueArchives(eviction)
}

func uniqueArchives(arr []entity.ExportArchive) []entity.ExportArchive {
	seen := make(map[string]struct{})
	var res []entity.ExportArchive
	for _, v := range arr {
		if _, ok := seen[v.Name]; !ok {
			seen[v.Name] = struct{}{}
			res = append(res, v)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].TimeStamp < res[j].TimeStamp
	})
	return res
}
