package ports

type ManifestPort interface {
	Locate(start string) (string, error)
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
}
