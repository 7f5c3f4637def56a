package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/service"
)

type documentResponse struct {
	Document *model.Document `json:"document"`
}

type documentListResponse struct {
	Documents []model.Document `json:"documents"`
}

// UploadDocument accepts a multipart upload in the "file" field.
//
//	@Summary	Upload a document
//	@Tags		documents
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Document (pdf, doc, docx, png, jpeg, webp, gif)"
//	@Success	201		{object}	documentResponse
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Failure	413		{object}	errorPayload
//	@Failure	415		{object}	errorPayload
//	@Failure	500		{object}	errorPayload
//	@Router		/documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.FileInput{}

		// A missing or unreadable part is passed on as an absent body; the service reports it.
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "File is required")
			}
			defer f.Close()

			in = service.FileInput{
				OriginalName: fh.Filename,
				MimeType:     fh.Header.Get(fiber.HeaderContentType),
				Size:         fh.Size,
				Body:         f,
			}
		}

		doc, err := docSvc.Ingest(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(documentResponse{Document: doc})
	}
}

// ListDocuments returns the caller's newest documents, at most 50.
//
//	@Summary	List documents
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	documentListResponse
//	@Failure	401	{object}	errorPayload
//	@Failure	500	{object}	errorPayload
//	@Router		/documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(documentListResponse{Documents: docs})
	}
}

// GetDocumentURL issues a short-lived download URL for one of the caller's documents.
//
//	@Summary	Get a signed download URL
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Document ID"
//	@Success	200	{object}	model.SignedURL
//	@Failure	401	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Failure	500	{object}	errorPayload
//	@Router		/documents/{id}/url [get]
func GetDocumentURL(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signed, err := docSvc.Retrieve(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(signed)
	}
}
