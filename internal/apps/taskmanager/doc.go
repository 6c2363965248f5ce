// Package taskmanager is the built-in system application that reports
// per-application state and resource usage on the taskmgr:update topic.
package taskmanager
