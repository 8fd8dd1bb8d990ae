package videotree

import (
	"errors"
	"fmt"

	"branchvid/internal/config"
	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	videoSvc "branchvid/internal/domain/services/videotree"
	"branchvid/internal/treeutil"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Validation methods

func validateTreeInfo(info *models.TreeInfo) error {
	return validation.ValidateStruct(info,
		validation.Field(&info.Title, validation.Length(0, config.MaxTitleLength)),
		validation.Field(&info.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&info.Thumbnail, validation.Length(0, config.MaxURLLength)),
		validation.Field(&info.Status, validation.By(knownStatus)),
	)
}

// knownStatus accepts a valid status or none, which keeps the stored one
func knownStatus(value interface{}) error {
	status, _ := value.(models.Status)
	if status == "" || status.Valid() {
		return nil
	}
	return fmt.Errorf("unknown status %q", status)
}

func validateUpdateTreeRequest(req *videoSvc.UpdateTreeRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.TreeID, validation.Required),
		validation.Field(&req.EditorID, validation.Required),
		validation.Field(&req.Root, validation.Required.Error("tree must have a root")),
	); err != nil {
		return err
	}
	if err := validateTreeInfo(&req.Info); err != nil {
		return fmt.Errorf("info: %w", err)
	}
	return validateNodeTree(req.Root)
}

// validateNodeTree bounds the size of a submission and checks each node's
// payload. Node ids are rewritten to canonical lowercase form so they compare
// equal to stored ids.
func validateNodeTree(root *models.NodeTree) error {
	if n := treeutil.Count(root); n > config.MaxNodeCount {
		return fmt.Errorf("tree has %d nodes, at most %d allowed", n, config.MaxNodeCount)
	}
	if d := treeutil.Depth(root); d > config.MaxTreeDepth {
		return fmt.Errorf("tree is %d layers deep, at most %d allowed", d, config.MaxTreeDepth)
	}

	var err error
	treeutil.Walk(root, func(node *models.NodeTree) bool {
		if node == nil {
			err = errors.New("null node in tree")
			return false
		}
		if node.ID != "" {
			id, parseErr := uuid.Parse(node.ID)
			if parseErr != nil {
				err = fmt.Errorf("node id %q is not a valid uuid", node.ID)
				return false
			}
			node.ID = id.String()
		}
		if node.ParentID != nil {
			if id, parseErr := uuid.Parse(*node.ParentID); parseErr == nil {
				canonical := id.String()
				node.ParentID = &canonical
			}
		}
		if infoErr := validateNodeInfo(&node.Info); infoErr != nil {
			err = fmt.Errorf("node %s: %w", node.ID, infoErr)
			return false
		}
		return true
	})
	return err
}

func validateNodeInfo(info *models.NodeInfo) error {
	return validation.ValidateStruct(info,
		validation.Field(&info.Name, validation.Length(0, config.MaxNodeNameLength)),
		validation.Field(&info.Label, validation.Length(0, config.MaxNodeLabelLength)),
		validation.Field(&info.URL, validation.Length(0, config.MaxURLLength)),
		validation.Field(&info.Duration, validation.Min(0.0)),
		validation.Field(&info.SelectionTimeStart, validation.Min(0.0)),
		validation.Field(&info.SelectionTimeEnd,
			validation.Min(0.0),
			validation.When(info.SelectionTimeEnd != 0, validation.Min(info.SelectionTimeStart)),
		),
	)
}

func validateSaveProgressRequest(req *videoSvc.SaveProgressRequest) error {
	if id, err := uuid.Parse(req.ActiveNodeID); err == nil {
		req.ActiveNodeID = id.String()
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.ViewerID, validation.Required),
		validation.Field(&req.TreeID, validation.Required, validation.By(isUUID)),
		validation.Field(&req.ActiveNodeID, validation.Required, validation.By(isUUID)),
		validation.Field(&req.Progress, validation.Min(0.0)),
		validation.Field(&req.TotalProgress, validation.Min(0.0)),
	)
}

// normalizePagination fills omitted values and rejects out-of-range ones
func normalizePagination(p *models.Pagination) error {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Max == 0 {
		p.Max = config.DefaultPageSize
	}
	return validation.ValidateStruct(p,
		validation.Field(&p.Page, validation.Min(1), validation.Max(config.MaxPageNumber)),
		validation.Field(&p.Max, validation.Min(1), validation.Max(config.MaxPageSize)),
	)
}

func validateIDs(ids []string) error {
	return validation.Validate(ids,
		validation.Length(0, config.MaxIDsPerRequest),
		validation.Each(validation.By(isUUID)),
	)
}

func isUUID(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return errors.New("must be a string")
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("must be a valid uuid")
	}
	return nil
}

func validationError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}
