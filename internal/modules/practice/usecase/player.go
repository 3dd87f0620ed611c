package usecase

import (
	"context"

	"stillpoint/internal/modules/practice/dto"
	practicein "stillpoint/internal/modules/practice/port/in"
	"stillpoint/internal/modules/practice/service"
)

type PlayerInteractor struct {
	doctor *service.PlayerDoctor
}

func NewPlayerInteractor(doctor *service.PlayerDoctor) practicein.PlayerUsecase {
	return &PlayerInteractor{doctor: doctor}
}

func (i *PlayerInteractor) Doctor(ctx context.Context) (dto.DoctorResult, error) {
	return i.doctor.Doctor(ctx)
}
