package videos

import "errors"

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured or could not be reached.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrInvalidURL indicates the URL does not identify a video for the provider.
	ErrInvalidURL = errors.New("unrecognised video url")
	// ErrNoMetadata indicates the provider answered without a usable thumbnail or id.
	ErrNoMetadata = errors.New("provider returned no usable metadata")
	// ErrAssetStorageUnavailable indicates thumbnail import has no object store.
	ErrAssetStorageUnavailable = errors.New("asset storage unavailable")
)
