package segment

import "testing"

func ruleByName(t *testing.T, name string) Rule {
	t.Helper()
	all, err := Compile(DefaultRules())
	if err != nil {
		t.Fatalf("compile default rules: %v", err)
	}
	for _, r := range all {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no rule named %q", name)
	return Rule{}
}

func TestCatalog_SplitsLooseRules(t *testing.T) {
	defaults, loose, err := Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(defaults) == 0 {
		t.Fatal("expected default rules")
	}
	for _, r := range defaults {
		if r.Category == CategoryLoose {
			t.Errorf("loose rule %q leaked into default catalog", r.Name)
		}
	}
	if len(loose) == 0 {
		t.Fatal("expected at least one loose fallback rule")
	}
	for _, r := range loose {
		if r.Category != CategoryLoose {
			t.Errorf("rule %q in loose set has category %d", r.Name, r.Category)
		}
	}
}

func TestRule_ChineseChapterStrict(t *testing.T) {
	r := ruleByName(t, "cn-chapter-strict")
	cases := []struct {
		line string
		want bool
	}{
		{"第一章 风雪夜", true},
		{"第12章：开端", true},
		{"第１２３章", true},
		{"  第三节 起因", true},
		{"第五回 大闹天宫", true},
		{"第两百章", true},
		{"普通的一行文字", false},
		{"这句提到第一章但不在行首", false},
	}
	for _, c := range cases {
		if got := r.re.MatchString(c.line); got != c.want {
			t.Errorf("cn-chapter-strict(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestRule_Keywords(t *testing.T) {
	cn := ruleByName(t, "cn-keyword")
	for _, line := range []string{"前言", "序章", "楔子", "尾声", "后记：创作谈"} {
		if !cn.re.MatchString(line) {
			t.Errorf("cn-keyword should match %q", line)
		}
	}
	if cn.re.MatchString("前言部分提到的内容很长，并不是一个标题行，因为它超出了允许的长度限制所以不该命中规则") {
		t.Error("cn-keyword matched an over-long line")
	}

	en := ruleByName(t, "en-keyword")
	for _, line := range []string{"Preface", "Prologue", "Epilogue", "Introduction"} {
		if !en.re.MatchString(line) {
			t.Errorf("en-keyword should match %q", line)
		}
	}
}

func TestRule_WesternChapters(t *testing.T) {
	r := ruleByName(t, "en-chapter")
	cases := []struct {
		line string
		want bool
	}{
		{"Chapter 1", true},
		{"Chapter 12 The Road", true},
		{"CHAPTER IV", true},
		{"Part 2", true},
		{"PART XIII", true},
		{"Chapters 5", false},
		{"Chapter", false},
	}
	for _, c := range cases {
		if got := r.re.MatchString(c.line); got != c.want {
			t.Errorf("en-chapter(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestRule_NumberedLineIsLoose(t *testing.T) {
	r := ruleByName(t, "numbered-line")
	if r.Category != CategoryLoose {
		t.Fatalf("numbered-line category = %d, want CategoryLoose", r.Category)
	}
	if !r.re.MatchString("1. 购物清单") {
		t.Error("numbered-line should match \"1. 购物清单\"")
	}
	if !r.re.MatchString("12、第二项") {
		t.Error("numbered-line should match \"12、第二项\"")
	}
	if r.re.MatchString("no leading number here") {
		t.Error("numbered-line matched a plain line")
	}
}

func TestHasNumeralUnit(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"第三章 开始", true},
		{"第１章", true},
		{"Chapter 4", true},
		{"PART IX", true},
		{"前言", false},
		{"目录", false},
		{"Prologue", false},
	}
	for _, c := range cases {
		if got := HasNumeralUnit(c.title); got != c.want {
			t.Errorf("HasNumeralUnit(%q) = %v, want %v", c.title, got, c.want)
		}
	}
}

func TestCompile_RejectsMalformedRule(t *testing.T) {
	_, err := Compile([]RuleSpec{{Name: "bad", Expr: "(["}})
	if err == nil {
		t.Fatal("expected a compile error for a malformed expression")
	}
}
