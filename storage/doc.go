// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package storage coordinates direct client uploads to blob storage.

Clients never send sensor files through the API. Instead, creating an IMU
session returns a Credential: a container SAS URL scoped to the session
folder users/{user}/sessions/{id}/ and valid for two hours. At finalize time
the API checks each claimed file with BlobSize.

AzureGateway is the production Gateway. Handlers depend only on the Gateway
interface so tests can substitute an in-memory fake.
*/
package storage
