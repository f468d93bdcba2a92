package service

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultMatchThreshold 归一化编辑距离的默认上限
const DefaultMatchThreshold = 0.3

// FindClosestMatch 在候选集中寻找与关键词最接近的一项。
// 第一轮：忽略大小写与空格的包含匹配，命中即返回（按输入顺序取第一个）；
// 第二轮：取归一化编辑距离（编辑距离 / 较长串长度）最小的候选，
// 仅当严格小于阈值时返回，否则视为无匹配。
func FindClosestMatch[T any](keyword string, options []T, projector func(T) string, threshold float64) (T, bool) {
	var zero T
	normalizedKeyword := normalizeMatchText(keyword)
	if normalizedKeyword == "" || len(options) == 0 {
		return zero, false
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	for _, option := range options {
		if strings.Contains(normalizeMatchText(projector(option)), normalizedKeyword) {
			return option, true
		}
	}

	bestDistance := threshold
	bestIndex := -1
	for i, option := range options {
		candidate := normalizeMatchText(projector(option))
		if candidate == "" {
			continue
		}
		distance := normalizedLevenshtein(normalizedKeyword, candidate)
		if distance < bestDistance {
			bestDistance = distance
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return zero, false
	}
	return options[bestIndex], true
}

// normalizedLevenshtein 编辑距离除以较长串长度，落在 [0,1]
func normalizedLevenshtein(a, b string) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(maxLen)
}

func normalizeMatchText(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
