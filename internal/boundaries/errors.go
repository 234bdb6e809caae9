package boundaries

import "errors"

var (
	ErrInvalidGeometry       = errors.New("boundary geometry must be a GeoJSON Polygon or MultiPolygon")
	ErrNoDraft               = errors.New("no draft boundary exists for this region")
	ErrRegionNotFound        = errors.New("region not found")
	ErrVersionNotFound       = errors.New("boundary version not found")
	ErrDraftExists           = errors.New("a draft already exists for this region; discard it first")
	ErrPublishedVersion      = errors.New("cannot delete the only published version; publish a replacement first")
	ErrNoPublished           = errors.New("region has no published boundary")
	ErrForbidden             = errors.New("insufficient privilege")
	ErrRollbackWindowExpired = errors.New("rollback window has expired for this version")
)
