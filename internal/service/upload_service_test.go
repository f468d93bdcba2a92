package service

import (
	"mime/multipart"
	"testing"
)

func TestMatchAttachmentsToRows(t *testing.T) {
	files := []*multipart.FileHeader{
		{Filename: "conv2_attach2.png"},
		{Filename: "conv1_attach1.jpg"},
		{Filename: "conv2_attach1.pdf"},
		{Filename: "receipt.png"},
		{Filename: "conv0_attach1.png"},
	}

	matched := MatchAttachmentsToRows(files)
	if len(matched) != 2 {
		t.Fatalf("matched rows want 2 got %d", len(matched))
	}
	if len(matched[1]) != 1 || matched[1][0].Filename != "conv1_attach1.jpg" {
		t.Fatalf("row 1 attachments mismatch: %v", matched[1])
	}
	// 同一行的附件按序号排序
	if len(matched[2]) != 2 || matched[2][0].Filename != "conv2_attach1.pdf" || matched[2][1].Filename != "conv2_attach2.png" {
		t.Fatalf("row 2 attachments mismatch: %v", matched[2])
	}
	if _, ok := matched[0]; ok {
		t.Fatalf("row numbers start at 1, row 0 must be ignored")
	}
}

func TestMatchAttachmentsToRowsEmpty(t *testing.T) {
	if matched := MatchAttachmentsToRows(nil); len(matched) != 0 {
		t.Fatalf("nil input want empty map got %v", matched)
	}
}
