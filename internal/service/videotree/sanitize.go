package videotree

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	models "branchvid/internal/domain/models/videotree"
)

// maxSanitizePasses bounds unescape/strip rounds for input like "&lt;b&gt;"
const maxSanitizePasses = 16

// plainTextPolicy strips every tag. Safe for concurrent use.
var plainTextPolicy = bluemonday.StrictPolicy()

// plainText removes markup from user text while keeping characters such as
// "&" and "<" that are not part of a tag. Text still decoding into new
// markup after maxSanitizePasses is returned escaped.
func plainText(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		stripped := html.UnescapeString(plainTextPolicy.Sanitize(s))
		if stripped == s {
			return s
		}
		s = stripped
	}
	return plainTextPolicy.Sanitize(s)
}

// sanitizeSubmission strips markup from the text fields viewers see.
// URLs are left alone; they are validated, not rendered.
func sanitizeSubmission(info *models.TreeInfo, root *models.NodeTree) {
	info.Title = plainText(info.Title)
	info.Description = plainText(info.Description)
	sanitizeNode(root)
}

func sanitizeNode(node *models.NodeTree) {
	if node == nil {
		return
	}
	node.Info.Name = plainText(node.Info.Name)
	node.Info.Label = plainText(node.Info.Label)
	for _, child := range node.Children {
		sanitizeNode(child)
	}
}
