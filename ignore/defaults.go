package ignore

// DefaultPatterns are skipped when MatcherOptions.Defaults is set: version control
// metadata and per-directory OS clutter that never describes user files.
var DefaultPatterns = []string{
	"**/.git",
	"**/.svn",
	"**/.hg",
	"**/.DS_Store",
	"**/Thumbs.db",
	"**/desktop.ini",
	"**/.Trash-*",
	"**/$RECYCLE.BIN",
	"**/System Volume Information",
}
