package service

import "testing"

func TestFindClosestMatchContainment(t *testing.T) {
	options := []string{"Bet99 Canada", "Sports Interaction", "Betano"}

	matched, ok := FindClosestMatch("bet99", options, func(s string) string { return s }, DefaultMatchThreshold)
	if !ok {
		t.Fatalf("expected containment match for bet99")
	}
	if matched != "Bet99 Canada" {
		t.Fatalf("matched want Bet99 Canada got %s", matched)
	}
}

func TestFindClosestMatchIgnoresCaseAndSpaces(t *testing.T) {
	options := []string{"Sports Interaction"}

	matched, ok := FindClosestMatch("SPORTSINTERACTION", options, func(s string) string { return s }, DefaultMatchThreshold)
	if !ok || matched != "Sports Interaction" {
		t.Fatalf("case/space insensitive match failed, got %q ok=%v", matched, ok)
	}
}

func TestFindClosestMatchContainmentFirstWins(t *testing.T) {
	// 两个候选都包含关键词时取输入顺序靠前的
	options := []string{"Betano Sports", "Betano Casino"}

	matched, ok := FindClosestMatch("betano", options, func(s string) string { return s }, DefaultMatchThreshold)
	if !ok || matched != "Betano Sports" {
		t.Fatalf("first containment match want Betano Sports got %q ok=%v", matched, ok)
	}
}

func TestFindClosestMatchFuzzyTypo(t *testing.T) {
	options := []string{"Betano"}

	// 一个字符的拼写错误应在默认阈值内
	matched, ok := FindClosestMatch("Betamo", options, func(s string) string { return s }, DefaultMatchThreshold)
	if !ok || matched != "Betano" {
		t.Fatalf("fuzzy match for typo failed, got %q ok=%v", matched, ok)
	}
}

func TestFindClosestMatchRejectsAboveThreshold(t *testing.T) {
	options := []string{"Betano"}

	if _, ok := FindClosestMatch("PowerPlay", options, func(s string) string { return s }, DefaultMatchThreshold); ok {
		t.Fatalf("unrelated keyword should not match")
	}
}

func TestFindClosestMatchEmptyInputs(t *testing.T) {
	if _, ok := FindClosestMatch("", []string{"Betano"}, func(s string) string { return s }, DefaultMatchThreshold); ok {
		t.Fatalf("empty keyword should not match")
	}
	if _, ok := FindClosestMatch("bet", nil, func(s string) string { return s }, DefaultMatchThreshold); ok {
		t.Fatalf("empty options should not match")
	}
}
