package store

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var gzipMagic = []byte{0x1f, 0x8b}

// versionObject is one serialised model in a revision payload:
// [{"model": ..., "pk": ..., "fields": {"document_xml": ...}}].
type versionObject map[string]json.RawMessage

// DecodeVersionXML extracts the document XML embedded in a version
// payload. The payload may be gzip compressed.
func DecodeVersionXML(data []byte) (string, error) {
	objects, _, err := decodeVersion(data)
	if err != nil {
		return "", err
	}
	fields, err := documentFields(objects)
	if err != nil {
		return "", err
	}
	var xml string
	if err := json.Unmarshal(fields["document_xml"], &xml); err != nil {
		return "", fmt.Errorf("decode document_xml: %w", err)
	}
	return xml, nil
}

// EncodeVersionXML replaces the document XML in a version payload,
// keeping every other field and the payload's compression.
func EncodeVersionXML(data []byte, xml string) ([]byte, error) {
	objects, compressed, err := decodeVersion(data)
	if err != nil {
		return nil, err
	}
	fields, err := documentFields(objects)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(xml)
	if err != nil {
		return nil, err
	}
	fields["document_xml"] = raw
	encodedFields, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	objects[0]["fields"] = encodedFields
	return encodeVersion(objects, compressed)
}

// NewVersionData builds a fresh, uncompressed payload for a new revision.
func NewVersionData(documentID int64, xml string) ([]byte, error) {
	fields, err := json.Marshal(map[string]string{"document_xml": xml})
	if err != nil {
		return nil, err
	}
	pk, err := json.Marshal(documentID)
	if err != nil {
		return nil, err
	}
	return encodeVersion([]versionObject{{
		"model":  json.RawMessage(`"indigo_api.document"`),
		"pk":     pk,
		"fields": fields,
	}}, false)
}

func decodeVersion(data []byte) ([]versionObject, bool, error) {
	compressed := bytes.HasPrefix(data, gzipMagic)
	if compressed {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, false, fmt.Errorf("read gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		if data, err = io.ReadAll(gz); err != nil {
			return nil, false, fmt.Errorf("read gzip: %w", err)
		}
	}
	var objects []versionObject
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, false, fmt.Errorf("decode version: %w", err)
	}
	return objects, compressed, nil
}

func documentFields(objects []versionObject) (map[string]json.RawMessage, error) {
	if len(objects) == 0 || objects[0]["fields"] == nil {
		return nil, errors.New("version has no document fields")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(objects[0]["fields"], &fields); err != nil {
		return nil, fmt.Errorf("decode version fields: %w", err)
	}
	if fields["document_xml"] == nil {
		return nil, errors.New("version has no document_xml")
	}
	return fields, nil
}

func encodeVersion(objects []versionObject, compressed bool) ([]byte, error) {
	data, err := json.Marshal(objects)
	if err != nil {
		return nil, err
	}
	if !compressed {
		return data, nil
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("write gzip: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("write gzip: %w", err)
	}
	return buf.Bytes(), nil
}
