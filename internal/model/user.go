package model

type UserID string
