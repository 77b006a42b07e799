package frameworks

// Jest detects the Jest test runner. Test files are loaded by the runner,
// never imported.
type Jest struct{}

func (Jest) Name() string { return "jest" }

func (Jest) EntryPatterns() []string {
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
		"**/__tests__/**/*.js",
		"**/__tests__/**/*.jsx",
		"jest.config.js",
		"jest.config.ts",
		"jest.config.mjs",
		"jest.setup.js",
		"jest.setup.ts",
		"setupTests.js",
		"setupTests.ts",
	}
}

func (Jest) SpecialExports() []string {
	return []string{
		"describe",
		"it",
		"test",
		"expect",
		"beforeAll",
		"afterAll",
		"beforeEach",
		"afterEach",
		"setup",
		"teardown",
		"default",
	}
}

func (Jest) Detect(deps map[string]bool) bool {
	return deps["jest"] || deps["@jest/core"]
}
