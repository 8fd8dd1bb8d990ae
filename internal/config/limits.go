package config

const (
	// MaxTitleLength is the maximum length for tree titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxTitleLength = 255

	// MaxDescriptionLength is the maximum length for tree descriptions.
	MaxDescriptionLength = 5000

	// MaxNodeLabelLength is the maximum length for a node's choice label.
	// Labels are rendered as buttons over the video.
	MaxNodeLabelLength = 100

	// MaxNodeNameLength is the maximum length for a node's name.
	MaxNodeNameLength = 255

	// MaxProfileNameLength is the maximum length of a display name.
	MaxProfileNameLength = 100

	// MaxURLLength is the maximum length of a blob reference.
	MaxURLLength = 2048

	// MaxNodeCount is the maximum number of nodes in one tree.
	MaxNodeCount = 500

	// MaxTreeDepth is the maximum layer of any node.
	MaxTreeDepth = 50

	// DefaultPageSize is used when a listing request omits max.
	DefaultPageSize = 10

	// MaxPageSize is the largest page a listing may request.
	MaxPageSize = 100

	// MaxPageNumber is the deepest page a listing may request.
	MaxPageNumber = 10000

	// MaxIDsPerRequest bounds the id filter of a listing.
	MaxIDsPerRequest = 100
)
