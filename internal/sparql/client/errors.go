package client

import (
	"errors"
	"fmt"
	"time"
)

type ErrorKind string

const (
	KindConnectivity   ErrorKind = "connectivity"
	KindAuthentication ErrorKind = "authentication"
	KindTimeout        ErrorKind = "timeout"
	KindMalformed      ErrorKind = "malformed_response"
)

// QueryExecutionError is implemented by every failure Execute returns.
type QueryExecutionError interface {
	error
	Kind() ErrorKind
}

type ConnectivityError struct {
	Endpoint string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("sparql endpoint %s unreachable: %v", e.Endpoint, e.Err)
}
func (e *ConnectivityError) Unwrap() error   { return e.Err }
func (e *ConnectivityError) Kind() ErrorKind { return KindConnectivity }

type AuthenticationError struct {
	Status int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("sparql endpoint rejected credentials (status %d)", e.Status)
}
func (e *AuthenticationError) Kind() ErrorKind { return KindAuthentication }

type TimeoutError struct {
	After  time.Duration
	Status int
	Err    error
}

func (e *TimeoutError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("sparql query timed out upstream (status %d)", e.Status)
	}
	return fmt.Sprintf("sparql query exceeded %s: %v", e.After, e.Err)
}
func (e *TimeoutError) Unwrap() error   { return e.Err }
func (e *TimeoutError) Kind() ErrorKind { return KindTimeout }

type MalformedResponseError struct {
	Status int
	Body   string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("malformed sparql response: %v", e.Err)
	default:
		return fmt.Sprintf("unexpected sparql response status %d: %s", e.Status, e.Body)
	}
}
func (e *MalformedResponseError) Unwrap() error   { return e.Err }
func (e *MalformedResponseError) Kind() ErrorKind { return KindMalformed }

// KindOf reports the taxonomy kind of err, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var qe QueryExecutionError
	if errors.As(err, &qe) {
		return qe.Kind()
	}
	return ""
}
