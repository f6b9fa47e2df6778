package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/TarasYkv/shop-mirror-daemon/app/controller"
	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EndpointHandler struct {
	mirrorDaemonUseCase controller.MirrorDaemonUseCase
	logger              *zap.SugaredLogger
}

func NewEndpointHandler(mirrorDaemonUseCase controller.MirrorDaemonUseCase, logger *zap.SugaredLogger) *EndpointHandler {
	return &EndpointHandler{
		mirrorDaemonUseCase: mirrorDaemonUseCase,
		logger:              logger,
	}
}

// statusOf maps use case errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, controller.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrJobInProgress), errors.Is(err, controller.ErrRunNotFinished):
		return http.StatusConflict
	case errors.Is(err, controller.ErrS3Disabled):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (h *EndpointHandler) fail(ctx *gin.Context, action string, err error) {
	message := fmt.Sprintf("failed to %s err: %v", action, err)
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error(message)
	} else {
		h.logger.Warn(message)
	}
	ctx.JSON(code, gin.H{
		"message": message,
	})
}

func (h *EndpointHandler) badBody(ctx *gin.Context, err error) {
	h.logger.Errorf("failed to unmarshall body err: %v", err)
	ctx.JSON(http.StatusBadRequest, gin.H{
		"message": fmt.Sprintf("failed to unmarshall body err: %v", err),
	})
}

func (h *EndpointHandler) Backup(ctx *gin.Context) {
	var request entity.BackupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		h.badBody(ctx, err)
		return
	}
	response, err := h.mirrorDaemonUseCase.StartBackup(ctx, request)
	if err != nil {
		h.fail(ctx, "start backup", err)
		return
	}
	ctx.JSON(http.StatusAccepted, response)
}

func (h *EndpointHandler) ListBackups(ctx *gin.Context) {
	runs, err := h.mirrorDaemonUseCase.ListBackups(ctx, ctx.Query("shop"))
	if err != nil {
		h.fail(ctx, "list backups", err)
		return
	}
	ctx.JSON(http.StatusOK, runs)
}

func (h *EndpointHandler) BackupStatus(ctx *gin.Context) {
	run, err := h.mirrorDaemonUseCase.GetBackup(ctx, ctx.Param("run_id"))
	if err != nil {
		h.fail(ctx, "get backup", err)
		return
	}
	ctx.JSON(http.StatusOK, run)
}

func (h *EndpointHandler) BackupDelete(ctx *gin.Context) {
	if err := h.mirrorDaemonUseCase.RemoveBackup(ctx, ctx.Param("run_id")); err != nil {
		h.fail(ctx, "remove backup", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "OK",
	})
}

func (h *EndpointHandler) Compare(ctx *gin.Context) {
	category := entity.ItemType(strings.TrimSpace(ctx.Query("category")))
	response, err := h.mirrorDaemonUseCase.Compare(ctx, ctx.Param("run_id"), category)
	if err != nil {
		h.fail(ctx, "compare backup", err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

func (h *EndpointHandler) Restore(ctx *gin.Context) {
	var request entity.RestoreRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		h.badBody(ctx, err)
		return
	}
	response, err := h.mirrorDaemonUseCase.StartRestore(ctx, ctx.Param("run_id"), request)
	if err != nil {
		h.fail(ctx, "start restore", err)
		return
	}
	ctx.JSON(http.StatusAccepted, response)
}

func (h *EndpointHandler) RestoreStatus(ctx *gin.Context) {
	response, err := h.mirrorDaemonUseCase.GetRestore(ctx, ctx.Param("job_id"))
	if err != nil {
		h.fail(ctx, "get restore", err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

func (h *EndpointHandler) ListRestores(ctx *gin.Context) {
	jobs, err := h.mirrorDaemonUseCase.ListRestores(ctx, ctx.Param("run_id"))
	if err != nil {
		h.fail(ctx, "list restores", err)
		return
	}
	ctx.JSON(http.StatusOK, jobs)
}

func (h *EndpointHandler) Export(ctx *gin.Context) {
	response, err := h.mirrorDaemonUseCase.Export(ctx, ctx.Param("run_id"))
	if err != nil {
		h.fail(ctx, "export backup", err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

func (h *EndpointHandler) ListExports(ctx *gin.Context) {
	archives, err := h.mirrorDaemonUseCase.ListExports(ctx, ctx.Param("run_id"))
	if err != nil {
		h.fail(ctx, "list exports", err)
		return
	}
	ctx.JSON(http.StatusOK, archives)
}

func (h *EndpointHandler) Download(ctx *gin.Context) {
	file, archive, err := h.mirrorDaemonUseCase.OpenExport(ctx, ctx.Param("name"))
	if err != nil {
		h.fail(ctx, "open export", err)
		return
	}
	defer func() {
		_ = file.Close()
	}()
	ctx.DataFromReader(http.StatusOK, archive.Size, "application/zip", file, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, archive.Name),
	})
}

func (h *EndpointHandler) S3PresignedURL(ctx *gin.Context) {
	expiration := 0
	if raw := ctx.Query("expiration"); raw != "" {
		var err error
		if expiration, err = strconv.Atoi(raw); err != nil {
			h.logger.Errorf("failed to parse value from url err: %v", err)
			ctx.JSON(http.StatusBadRequest, gin.H{
				"message": fmt.Sprintf("failed to parse value from url err: %v", err),
			})
			return
		}
	}
	request := entity.S3PresignedURLRequest{
		Name:       ctx.Param("name"),
		Expiration: expiration,
	}
	response, err := h.mirrorDaemonUseCase.CreateS3PresignedURL(ctx, request)
	if err != nil {
		h.fail(ctx, "create s3 presigned url", err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

func (h *EndpointHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"message": "OK",
	})
}
