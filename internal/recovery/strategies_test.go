package recovery_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pdf-saas/orchestrator/internal/recovery"
)

var _ = Describe("strategies", func() {
	DescribeTable("StripFence",
		func(in, expected string) {
			Expect(recovery.StripFence(in)).To(Equal(expected))
		},
		Entry("no fence", `  {"a":1} `, `{"a":1}`),
		Entry("json fence", "```json\n{\"a\":1}\n```", `{"a":1}`),
		Entry("bare fence", "```\n{\"a\":1}\n```", `{"a":1}`),
		Entry("upper case tag", "```JSON {\"a\":1}```", `{"a":1}`),
	)

	DescribeTable("ExtractBraceSpan",
		func(in, expected string) {
			Expect(recovery.ExtractBraceSpan(in)).To(Equal(expected))
		},
		Entry("surrounding prose", `result: {"a":{"b":1}} done`, `{"a":{"b":1}}`),
		Entry("greedy span", `{"a":1} and {"b":2}`, `{"a":1} and {"b":2}`),
		Entry("no braces", "  plain text  ", "plain text"),
		Entry("closing before opening", "} {", "} {"),
	)

	DescribeTable("RemoveTrailingSeparators",
		func(in, expected string) {
			Expect(recovery.RemoveTrailingSeparators(in)).To(Equal(expected))
		},
		Entry("array", `["a", "b",]`, `["a", "b"]`),
		Entry("object with whitespace", "{\"a\": 1,\n }", "{\"a\": 1}"),
		Entry("untouched", `{"a": [1, 2]}`, `{"a": [1, 2]}`),
	)

	DescribeTable("StraightenQuotes",
		func(in, expected string) {
			Expect(recovery.StraightenQuotes(in)).To(Equal(expected))
		},
		Entry("double", `“a”`, `"a"`),
		Entry("single", `‘a’`, `'a'`),
	)

	DescribeTable("CollapseDuplicateSeparators",
		func(in, expected string) {
			Expect(recovery.CollapseDuplicateSeparators(in)).To(Equal(expected))
		},
		Entry("adjacent", `[1,,2]`, `[1,2]`),
		Entry("spaced", `[1, , 2]`, `[1, 2]`),
	)

	DescribeTable("InsertObjectSeparators",
		func(in, expected string) {
			Expect(recovery.InsertObjectSeparators(in)).To(Equal(expected))
		},
		Entry("adjacent", `[{"a":1}{"a":2}]`, `[{"a":1},{"a":2}]`),
		Entry("newline", "[{\"a\":1}\n  {\"a\":2}]", `[{"a":1},{"a":2}]`),
	)

	DescribeTable("InsertStringSeparators",
		func(in, expected string) {
			Expect(recovery.InsertStringSeparators(in)).To(Equal(expected))
		},
		Entry("spaced", `["a" "b"]`, `["a", "b"]`),
		Entry("untouched", `["a", "b"]`, `["a", "b"]`),
		Entry("newline", "[\"a\"\n  \"b\"]", `["a", "b"]`),
		Entry("empty literal", `{"explanation": ""}`, `{"explanation": ""}`),
		Entry("empty literals in an array", `["", ""]`, `["", ""]`),
		Entry("escaped quote", `["say \"hi\"" "b"]`, `["say \"hi\"", "b"]`),
	)

	It("orders the normalization strategies", func() {
		Expect(recovery.NormalizationStrategies).To(HaveLen(3))
		Expect(recovery.RepairStrategies).To(HaveLen(2))
	})
})
