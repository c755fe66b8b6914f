package service

import (
	"context"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IProjectService interface {
	Create(ctx context.Context, request *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	GetAll(ctx context.Context) ([]*dto.ProjectResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ProjectResponse, error)
	UpdateProvider(ctx context.Context, request *dto.UpdateProjectProviderRequest) (*dto.ProjectResponse, error)
}

type projectService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewProjectService(uowFactory unitofwork.RepositoryFactory) IProjectService {
	return &projectService{uowFactory: uowFactory}
}

func toProjectResponse(p *entity.Project) *dto.ProjectResponse {
	return &dto.ProjectResponse{
		Id:           p.Id,
		Name:         p.Name,
		LlmProvider:  p.LlmProvider,
		LlmModelName: p.LlmModelName,
		CreatedAt:    p.CreatedAt,
	}
}

func (s *projectService) Create(ctx context.Context, request *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	project := &entity.Project{
		Id:           uuid.New(),
		Name:         request.Name,
		LlmProvider:  request.LlmProvider,
		LlmModelName: request.LlmModelName,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ProjectRepository().Create(ctx, project); err != nil {
		return nil, err
	}
	return toProjectResponse(project), nil
}

func (s *projectService) GetAll(ctx context.Context) ([]*dto.ProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	projects, err := uow.ProjectRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ProjectResponse, len(projects))
	for i, p := range projects {
		responses[i] = toProjectResponse(p)
	}
	return responses, nil
}

func (s *projectService) Show(ctx context.Context, id uuid.UUID) (*dto.ProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "project not found")
	}
	return toProjectResponse(project), nil
}

func (s *projectService) UpdateProvider(ctx context.Context, request *dto.UpdateProjectProviderRequest) (*dto.ProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ProjectRepository()

	project, err := repo.FindOne(ctx, specification.ByID{ID: request.Id})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "project not found")
	}

	project.LlmProvider = request.LlmProvider
	project.LlmModelName = request.LlmModelName
	if err := repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return toProjectResponse(project), nil
}
