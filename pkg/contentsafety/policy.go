package contentsafety

import "regexp"

// Policy is the rule set a Validator enforces.
// Lengths are counted in runes after trimming surrounding whitespace.
type Policy struct {
	MinLength int
	MaxLength int

	// Injection patterns are matched case-insensitively.
	Injection []string
	// ForbiddenKeywords are matched as case-insensitive substrings, so a stem
	// such as "invest" also covers "investment" and "investors".
	ForbiddenKeywords []string
	// FuturePatterns are matched case-insensitively.
	FuturePatterns []string
	// DomainTerms are matched as case-insensitive substrings; at least one must occur.
	DomainTerms []string
}

// DefaultPolicy returns the palm reading rules.
func DefaultPolicy() Policy {
	return Policy{
		MinLength: 10,
		MaxLength: 500,
		Injection: []string{
			`ignore\s+(all\s+)?(the\s+)?(previous|prior|above|earlier|system)\s+(instructions?|prompts?|rules|messages?)`,
			`disregard\s+(all\s+)?(the\s+)?(previous|prior|above|system)\b`,
			`you\s+are\s+now\s+(a|an|the|my)\b`,
			`\b(act\s+as|pretend\s+(to\s+be|you\s+are)|role-?\s?play\s+as)\b`,
			`(^|\n)\s*system\s*:`,
			`\bforget\s+(everything|all|previous|prior|your)\b`,
			`\bnew\s+instructions?\s*:`,
			`\b(jailbreak|dan\s+mode|developer\s+mode)\b`,
			`\breveal\s+(your\s+)?(system\s+)?(prompt|instructions)\b`,
		},
		ForbiddenKeywords: []string{
			// medical
			"diagnos", "disease", "cancer", "tumor", "medical", "medication",
			"medicine", "prescription", "symptom", "illness", "pregnan",
			// legal
			"lawsuit", "lawyer", "attorney", "legal advice", "court case",
			// financial
			"stock", "invest", "crypto", "bitcoin", "lottery", "gambl", "forex", "trading tip",
			// political
			"election", "ballot", "president", "politic",
			// religious
			"religio", "god", "church", "bible", "quran", "prayer",
			// general off-domain
			"weather", "recipe", "homework", "programming",
		},

		FuturePatterns: []string{
			`\bwhen\s+will\s+i\b`,
			`\bwill\s+i\s+ever\b`,
			`\bam\s+i\s+going\s+to\b`,
			`\bpredict\s+my\b`,
			`\bhow\s+long\s+will\s+i\s+live\b`,
			`\bwhat\s+year\s+will\b`,
			`\bhow\s+many\s+(children|kids)\s+will\s+i\b`,
		},
		DomainTerms: []string{
			"palm", "hand", "line", "heart", "head", "life", "fate", "finger",
			"thumb", "mount", "reading", "marriage", "sun", "mercury", "venus",
			"jupiter", "saturn", "apollo", "personality", "character", "trait",
			"relationship", "love", "career", "strength", "weakness", "talent",
			"analysis", "report",
		},
	}
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}
