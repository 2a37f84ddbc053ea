package marshalls

// PopularPackages is the built-in corpus of well-known package names the
// typosquat check compares against. Callers can supply their own corpus
// through All.
var PopularPackages = []string{
	"ansi-styles",
	"argparse",
	"async",
	"axios",
	"babel-core",
	"bluebird",
	"body-parser",
	"chalk",
	"cheerio",
	"classnames",
	"color",
	"commander",
	"core-js",
	"cross-spawn",
	"debug",
	"dotenv",
	"ejs",
	"eslint",
	"esbuild",
	"express",
	"fs-extra",
	"glob",
	"graphql",
	"inquirer",
	"jest",
	"jquery",
	"js-yaml",
	"json5",
	"jsonwebtoken",
	"lodash",
	"micromatch",
	"minimatch",
	"minimist",
	"mkdirp",
	"mocha",
	"moment",
	"mongoose",
	"nan",
	"next",
	"node-fetch",
	"nodemon",
	"object-assign",
	"prettier",
	"prop-types",
	"q",
	"ramda",
	"react",
	"react-dom",
	"redux",
	"request",
	"rimraf",
	"rxjs",
	"semver",
	"socket.io",
	"through2",
	"tslib",
	"typescript",
	"underscore",
	"uuid",
	"vue",
	"webpack",
	"which",
	"winston",
	"ws",
	"yargs",
	"zod",
}
