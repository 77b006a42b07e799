package frameworks

// Vitest detects the Vitest test runner.
type Vitest struct{}

func (Vitest) Name() string { return "vitest" }

func (Vitest) EntryPatterns() []string {
	return []string{
		"**/*.test.ts",
		"**/*.test.tsx",
		"**/*.test.js",
		"**/*.test.jsx",
		"**/*.spec.ts",
		"**/*.spec.tsx",
		"**/*.spec.js",
		"**/*.spec.jsx",
		"**/__tests__/**/*.ts",
		"**/__tests__/**/*.tsx",
		"vitest.config.ts",
		"vitest.config.js",
		"vitest.config.mts",
		"vitest.setup.ts",
		"vitest.setup.js",
	}
}

func (Vitest) SpecialExports() []string {
	return []string{
		"describe",
		"it",
		"test",
		"expect",
		"vi",
		"beforeAll",
		"afterAll",
		"beforeEach",
		"afterEach",
		"bench",
		"suite",
		"default",
	}
}

func (Vitest) Detect(deps map[string]bool) bool {
	return deps["vitest"]
}
