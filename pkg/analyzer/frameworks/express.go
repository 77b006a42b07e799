package frameworks

// Express detects Express.js applications. Routes, controllers, and
// middleware are conventionally wired at runtime.
type Express struct{}

func (Express) Name() string { return "express" }

func (Express) EntryPatterns() []string {
	return []string{
		"src/index.ts",
		"src/index.js",
		"src/app.ts",
		"src/app.js",
		"src/server.ts",
		"src/server.js",
		"index.ts",
		"index.js",
		"app.ts",
		"app.js",
		"server.ts",
		"server.js",
		"src/routes/**/*.ts",
		"src/routes/**/*.js",
		"routes/**/*.ts",
		"routes/**/*.js",
		"src/controllers/**/*.ts",
		"src/controllers/**/*.js",
		"controllers/**/*.ts",
		"controllers/**/*.js",
		"src/middleware/**/*.ts",
		"src/middleware/**/*.js",
		"middleware/**/*.ts",
		"middleware/**/*.js",
	}
}

func (Express) SpecialExports() []string {
	return []string{
		"router",
		"app",
		"get",
		"post",
		"put",
		"delete",
		"patch",
		"options",
		"head",
		"all",
		"use",
		"default",
	}
}

func (Express) Detect(deps map[string]bool) bool {
	return deps["express"]
}
