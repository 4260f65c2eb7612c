package scf

import (
	"encoding/base64"
	"fmt"
	"os"
)

// FunctionCodeSource enumerates where function or layer code comes
// from.
type FunctionCodeSource int

const (
	CodeSourceUnset FunctionCodeSource = iota
	CodeSourceObjectStorageBucket
	CodeSourceLocalZipArchive
	CodeSourceGitRepository
)

// GitSource points at a git repository holding function code.
type GitSource struct {
	URL       string
	Branch    string
	Directory string
	CommitID  string
	Username  string
	Password  string
}

// FunctionCode selects exactly one code source for a function or a
// layer. Builder calls overwrite any earlier source; errors surface
// when the code is committed to an action.
type FunctionCode struct {
	source FunctionCodeSource

	cosRegionID   string
	cosBucketName string
	cosObjectName string

	zipContent string

	git GitSource

	err error
}

// LayerContent carries layer code; it is built the same way as
// function code.
type LayerContent = FunctionCode

// NewFunctionCode returns an empty code selector.
func NewFunctionCode() *FunctionCode {
	return &FunctionCode{}
}

// NewLayerContent returns an empty layer content selector.
func NewLayerContent() *LayerContent {
	return &FunctionCode{}
}

// UseObjectStorageBucket sources code from a zip object in an object
// storage bucket.
func (fc *FunctionCode) UseObjectStorageBucket(regionID, bucketName, objectName string) *FunctionCode {
	if regionID == "" || bucketName == "" || objectName == "" {
		fc.err = fmt.Errorf("function code: bucket source requires region, bucket and object names")
		return fc
	}
	fc.source = CodeSourceObjectStorageBucket
	fc.cosRegionID = regionID
	fc.cosBucketName = bucketName
	fc.cosObjectName = objectName
	return fc
}

// UseLocalZipArchive sources code from a local zip archive, uploaded
// inline with the action.
func (fc *FunctionCode) UseLocalZipArchive(path string) *FunctionCode {
	content, err := os.ReadFile(path)
	if err != nil {
		fc.err = fmt.Errorf("function code: read zip archive: %w", err)
		return fc
	}
	fc.source = CodeSourceLocalZipArchive
	fc.zipContent = base64.StdEncoding.EncodeToString(content)
	return fc
}

// UseGitRepository sources code from a git repository.
func (fc *FunctionCode) UseGitRepository(git GitSource) *FunctionCode {
	if git.URL == "" {
		fc.err = fmt.Errorf("function code: git source requires a repository URL")
		return fc
	}
	fc.source = CodeSourceGitRepository
	fc.git = git
	return fc
}

// codeParameters renders the selected source into action parameters.
func (fc *FunctionCode) codeParameters() (map[string]interface{}, error) {
	if fc.err != nil {
		return nil, fc.err
	}
	switch fc.source {
	case CodeSourceObjectStorageBucket:
		return map[string]interface{}{
			"CosBucketName":   fc.cosBucketName,
			"CosObjectName":   fc.cosObjectName,
			"CosBucketRegion": fc.cosRegionID,
		}, nil
	case CodeSourceLocalZipArchive:
		return map[string]interface{}{
			"ZipFile": fc.zipContent,
		}, nil
	case CodeSourceGitRepository:
		params := map[string]interface{}{
			"GitUrl": fc.git.URL,
		}
		if fc.git.Branch != "" {
			params["GitBranch"] = fc.git.Branch
		}
		if fc.git.Directory != "" {
			params["GitDirectory"] = fc.git.Directory
		}
		if fc.git.CommitID != "" {
			params["GitCommitId"] = fc.git.CommitID
		}
		if fc.git.Username != "" {
			params["GitUserName"] = fc.git.Username
		}
		if fc.git.Password != "" {
			params["GitPassword"] = fc.git.Password
		}
		return params, nil
	default:
		return nil, fmt.Errorf("function code: no code source selected")
	}
}
