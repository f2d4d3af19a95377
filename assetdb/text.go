package assetdb

// TextAsset is the payload produced by the text protocol.
type TextAsset struct {
	content string
}

// Content returns the decoded text.
func (a TextAsset) Content() string { return a.content }

// TextProtocol decodes fetched bytes as UTF-8 text under the "txt" tag.
type TextProtocol struct {
	BaseProtocol
}

func (TextProtocol) Name() string { return "txt" }

func (TextProtocol) OnLoad(_ string, data []byte) LoadResult {
	return LoadData(TextAsset{content: string(data)})
}

var _ Protocol = TextProtocol{}
