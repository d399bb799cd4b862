package models

// ServerInfo сведения о сервере CodeBeamer
type ServerInfo struct {
	MajorVersion string `json:"majorVersion"`
	MinorVersion string `json:"minorVersion"`
	BuildDate    string `json:"buildDate"`
	OS           string `json:"os"`
	JavaVersion  string `json:"javaVersion"`
}
