package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/storage"
)

// handleUpload はmultipartの "file" フィールドをオブジェクトストレージへ
// アップロードし、公開URLを返すハンドラを返す。受け付けるのはPDFのみで、
// Content-Typeは常にapplication/pdfとして保存する。
func (s *Server) handleUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.uploader == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "アップロード先が設定されていません"})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fileフィールドが必要です"})
			return
		}
		if !storage.IsPDF(fh.Filename, fh.Header.Get("Content-Type")) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PDFファイルのみアップロードできます"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルを読み込めません"})
			return
		}
		defer f.Close()

		url, err := s.uploader.Upload(c.Request.Context(), fh.Filename, storage.PDFContentType, f)
		if err != nil {
			s.logger.Error().Err(err).Str("file_name", fh.Filename).Msg("アップロードに失敗")
			c.JSON(http.StatusBadGateway, gin.H{"error": "アップロードに失敗しました"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"url": url})
	}
}
