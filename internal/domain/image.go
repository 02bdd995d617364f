package domain

// ImageCredit carries attribution for a fetched image. Some providers
// additionally require an application-level referral link.
type ImageCredit struct {
	Text    string
	Link    string
	AppLink string
}

// ImageResult is the outcome of one image acquisition. TrackingURL, when
// set, must be hit with a fire-and-forget compliance request once the image
// is actually used.
type ImageResult struct {
	Path        string
	Credit      *ImageCredit
	TrackingURL string
}
