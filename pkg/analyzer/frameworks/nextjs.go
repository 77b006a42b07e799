package frameworks

// NextJS detects Next.js projects. Both the pages and app routers load
// files by path convention, and data-fetching exports are called by the
// framework.
type NextJS struct{}

func (NextJS) Name() string { return "nextjs" }

func (NextJS) EntryPatterns() []string {
	return []string{
		// Pages router
		"pages/**/*.tsx",
		"pages/**/*.ts",
		"pages/**/*.jsx",
		"pages/**/*.js",
		"src/pages/**/*.tsx",
		"src/pages/**/*.ts",
		"src/pages/**/*.jsx",
		"src/pages/**/*.js",
		// App router
		"app/**/page.tsx",
		"app/**/page.ts",
		"app/**/page.jsx",
		"app/**/page.js",
		"app/**/layout.tsx",
		"app/**/layout.ts",
		"app/**/layout.jsx",
		"app/**/layout.js",
		"app/**/loading.tsx",
		"app/**/error.tsx",
		"app/**/not-found.tsx",
		"app/**/route.ts",
		"src/app/**/page.tsx",
		"src/app/**/page.ts",
		"src/app/**/layout.tsx",
		"src/app/**/route.ts",
		// API routes
		"pages/api/**/*.ts",
		"pages/api/**/*.js",
		"src/pages/api/**/*.ts",
		"app/api/**/route.ts",
		"src/app/api/**/route.ts",
		// Config and middleware
		"next.config.js",
		"next.config.mjs",
		"next.config.ts",
		"middleware.ts",
		"middleware.js",
		"src/middleware.ts",
	}
}

func (NextJS) SpecialExports() []string {
	return []string{
		// Pages router data fetching
		"getServerSideProps",
		"getStaticProps",
		"getStaticPaths",
		"getInitialProps",
		// App router
		"generateMetadata",
		"generateStaticParams",
		"generateViewport",
		"generateImageMetadata",
		// Route handlers
		"GET",
		"POST",
		"PUT",
		"DELETE",
		"PATCH",
		"HEAD",
		"OPTIONS",
		// Route segment config
		"config",
		"runtime",
		"preferredRegion",
		"revalidate",
		"dynamic",
		"dynamicParams",
		"fetchCache",
		// Middleware
		"middleware",
		"matcher",
		// Page component
		"default",
	}
}

func (NextJS) Detect(deps map[string]bool) bool {
	return deps["next"]
}
