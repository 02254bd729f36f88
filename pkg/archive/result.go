package archive

// ExtractStatus classifies the outcome of an extraction.
type ExtractStatus int

const (
	ExtractUnknown ExtractStatus = iota
	ExtractSuccess
	// ExtractSourceFailed means the archive itself could not be read.
	ExtractSourceFailed
	// ExtractDestinationFailed means the local file system rejected a write.
	ExtractDestinationFailed
	ExtractCanceled
)

func (s ExtractStatus) String() string {
	switch s {
	case ExtractSuccess:
		return "Success"
	case ExtractSourceFailed:
		return "SourceFailed"
	case ExtractDestinationFailed:
		return "DestinationFailed"
	case ExtractCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// ExtractResult describes what an extraction produced. On any status other
// than ExtractSuccess the files in CreatedFiles have already been removed.
type ExtractResult struct {
	Status       ExtractStatus
	OutputDir    string
	CreatedFiles []string
	Err          error
}

// Successful reports whether the extraction completed.
func (r *ExtractResult) Successful() bool {
	return r != nil && r.Status == ExtractSuccess
}
