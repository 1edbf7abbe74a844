package domain

import "time"

// SubjectType differentiates customer vs engineer tokens.
type SubjectType string

const (
	SubjectTypeCustomer SubjectType = "CUSTOMER"
	SubjectTypeEngineer SubjectType = "ENGINEER"
)

// Actor is the resolved identity attached to every manager call. The core
// trusts it; authentication happens at the transport boundary.
type Actor struct {
	Type SubjectType
	ID   string
}

func CustomerActor(id string) Actor {
	return Actor{Type: SubjectTypeCustomer, ID: id}
}

func EngineerActor(id string) Actor {
	return Actor{Type: SubjectTypeEngineer, ID: id}
}

// Customer is an end-user who opens tickets.
type Customer struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Engineer is a support engineer who claims tickets.
type Engineer struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
